// Package swiftmgr ties configuration and logging together for swiftkit
// applications: it loads the viper configuration, builds the Authenticator
// it describes, and owns a ConnectionPool that callers borrow Connections
// from.
package swiftmgr

import (
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/swiftkit/swiftkit/pkg/swiftkit"
)

type SwiftManager struct {
	Auth   swiftkit.Authenticator
	Pool   *swiftkit.ConnectionPool
	Logger logrus.FieldLogger
	Cfg    *viper.Viper
}

func NewManager(userCfg map[string]interface{}) (*SwiftManager, error) {
	var err error
	mgr := &SwiftManager{}

	if cfgPathRaw, ok := userCfg["config-file"]; ok {
		if cfgPath, ok := cfgPathRaw.(string); ok {
			err = mgr.initConfig(&cfgPath)
		} else {
			return nil, errors.New("option 'config-file' must be of type string")
		}
	} else {
		err = mgr.initConfig(nil)
	}
	if err != nil {
		return nil, err
	}

	if loggerRaw, ok := userCfg["logger"]; ok {
		if logger, ok := loggerRaw.(logrus.FieldLogger); ok {
			mgr.Logger = logger
		} else {
			return nil, errors.New("option 'logger' must satisfy logrus.FieldLogger")
		}
	} else {
		mgr.Logger = logrus.New()
	}

	if err = mgr.initPool(); err != nil {
		return nil, err
	}

	return mgr, nil
}

// GetConnection borrows an authenticated connection from the pool.
func (self *SwiftManager) GetConnection() (*swiftkit.Connection, error) {
	return self.Pool.Get()
}

// ReleaseConnection returns a borrowed connection to the pool.
func (self *SwiftManager) ReleaseConnection(conn *swiftkit.Connection) {
	self.Pool.Put(conn)
}

func (self *SwiftManager) Destroy() {
	self.Pool.Close()
}

func (self *SwiftManager) initConfig(cfgPath *string) error {
	// Setup defaults and globals here. These can be overwritten in the
	// config, but aren't included by default.

	// This is a private viper context just for swiftkit (so as not to
	// conflict with the importer's usage).
	self.Cfg = viper.New()

	self.Cfg.SetDefault("authurl", swiftkit.DefaultAuthURL)
	self.Cfg.SetDefault("apiversion", swiftkit.DefaultAPIVersion)
	self.Cfg.SetDefault("timeout", 5)
	self.Cfg.SetDefault("poolsize", swiftkit.DefaultPoolSize)

	// Order of precedence: ENV, swiftkit.yaml, defaults
	self.Cfg.BindEnv("account", "SWIFTKIT_ACCOUNT")
	self.Cfg.BindEnv("username", "SWIFTKIT_USER")
	self.Cfg.BindEnv("apikey", "SWIFTKIT_KEY")
	self.Cfg.BindEnv("authurl", "SWIFTKIT_AUTHURL")

	if cfgPath != nil {
		// Use config file from the flag.
		self.Cfg.SetConfigFile(*cfgPath)
		if err := self.Cfg.ReadInConfig(); err != nil {
			return errors.Wrap(err, "Failed to load config")
		}
		return nil
	}

	// default search path is ./configs/swiftkit.* then ~/.swiftkit/swiftkit.*
	self.Cfg.AddConfigPath("./configs")
	if home, err := homedir.Dir(); err == nil {
		self.Cfg.AddConfigPath(filepath.Join(home, ".swiftkit"))
	}
	self.Cfg.SetConfigName("swiftkit")

	// Credentials can come entirely from the environment, so a missing
	// config file is not an error here.
	if err := self.Cfg.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return errors.Wrap(err, "Failed to load config")
		}
	}
	return nil
}

func (self *SwiftManager) initPool() error {
	if self.Cfg.GetBool("auth.mock") {
		self.Auth = &swiftkit.MockAuth{
			Account: self.Cfg.GetString("account"),
			URL:     self.Cfg.GetString("auth.mockurl"),
			Version: self.Cfg.GetInt("apiversion"),
		}
	} else {
		if self.Cfg.GetString("username") == "" || self.Cfg.GetString("apikey") == "" {
			return errors.New("No credentials configured: set username/apikey in the config or SWIFTKIT_USER/SWIFTKIT_KEY in the environment")
		}
		self.Auth = &swiftkit.Auth{
			Account:  self.Cfg.GetString("account"),
			Username: self.Cfg.GetString("username"),
			APIKey:   self.Cfg.GetString("apikey"),
			URL:      self.Cfg.GetString("authurl"),
			Version:  self.Cfg.GetInt("apiversion"),
			Timeout:  time.Duration(self.Cfg.GetInt("timeout")) * time.Second,
		}
	}

	self.Pool = swiftkit.NewConnectionPool(
		self.Auth,
		self.Cfg.GetInt("poolsize"),
		&swiftkit.ConnectionOptions{
			Timeout: time.Duration(self.Cfg.GetInt("timeout")) * time.Second,
			Logger:  self.Logger.WithField("module", "swiftkit"),
		})
	return nil
}
