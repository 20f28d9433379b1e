package swiftmgr

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

func Example() {
	mgrArgs := map[string]interface{}{}
	// ./swiftkit.yaml is a swiftkit configuration that's been setup for
	// your environment
	mgrArgs["config-file"] = "./swiftkit.yaml"

	// Adding a custom logger is optional
	swiftLogger := logrus.New()
	swiftLogger.SetLevel(logrus.WarnLevel)
	mgrArgs["logger"] = swiftLogger

	mgr, err := NewManager(mgrArgs)
	if err != nil {
		fmt.Printf("Failed to initialize: %v\n", err)
		os.Exit(1)
	}
	defer mgr.Destroy()

	conn, err := mgr.GetConnection()
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer mgr.ReleaseConnection(conn)

	// Put a hello world object into a fresh container
	container, err := conn.CreateContainer("greetings")
	if err != nil {
		fmt.Printf("Failed to create container: %v\n", err)
		os.Exit(1)
	}

	obj, err := container.CreateObject("hello.txt")
	if err != nil {
		fmt.Printf("Failed to create object: %v\n", err)
		os.Exit(1)
	}
	if err := obj.Write([]byte("hello world\n"), true, nil); err != nil {
		fmt.Printf("Failed to write object: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(obj.ETag())
}
