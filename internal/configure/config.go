package configure

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const EnvPrefix = "PORTAL"

func checkErr(err error) {
	if err != nil {
		zap.S().Fatalw("config",
			"error", err,
		)
	}
}

func New() *Config {
	initLogging("info")

	pflag.String("config", "config.yaml", "Config file location")
	pflag.Bool("noheader", false, "Disable the startup header")

	pflag.Parse()

	config, err := load(pflag.CommandLine)
	checkErr(err)

	initLogging(config.Level)

	return config
}

func load(flags *pflag.FlagSet) (*Config, error) {
	config := viper.New()

	// Default config
	b, _ := json.Marshal(Default())
	tmp := viper.New()
	defaultConfig := bytes.NewReader(b)

	tmp.SetConfigType("json")
	if err := tmp.ReadConfig(defaultConfig); err != nil {
		return nil, err
	}

	if err := config.MergeConfigMap(tmp.AllSettings()); err != nil {
		return nil, err
	}

	if flags != nil {
		if err := config.BindPFlags(flags); err != nil {
			return nil, err
		}
	}

	// File
	if file := config.GetString("config"); file != "" {
		config.SetConfigFile(file)
		config.AddConfigPath(".")

		if err := config.MergeInConfig(); err != nil {
			zap.S().Debugw("config file not loaded",
				"file", file,
				"error", err,
			)
		}
	}

	// Environment
	config.SetEnvPrefix(EnvPrefix)
	config.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	config.AllowEmptyEnv(true)

	bindEnvs(config, Config{})
	config.AutomaticEnv()

	c := &Config{}
	if err := config.Unmarshal(c); err != nil {
		return nil, err
	}

	return c, nil
}

func bindEnvs(config *viper.Viper, iface interface{}, parts ...string) {
	ifv := reflect.ValueOf(iface)
	ift := reflect.TypeOf(iface)

	for i := 0; i < ift.NumField(); i++ {
		v := ifv.Field(i)
		t := ift.Field(i)

		tv, ok := t.Tag.Lookup("mapstructure")
		if !ok {
			continue
		}

		switch v.Kind() {
		case reflect.Struct:
			bindEnvs(config, v.Interface(), append(parts, tv)...)
		default:
			_ = config.BindEnv(strings.Join(append(parts, tv), "."))
		}
	}
}

// Default returns the configuration used when no file or environment overrides a value.
func Default() Config {
	c := Config{
		Level:      "info",
		ConfigFile: "config.yaml",
	}

	c.Http.Addr = "0.0.0.0"
	c.Http.Ports.REST = 3000
	c.Http.Ports.Realtime = 3001

	c.Mongo.URI = "mongodb://localhost:27017"
	c.Mongo.DB = "portal"

	c.Realtime.HeartbeatInterval = 25000
	c.Realtime.SendBuffer = 64
	c.Realtime.WriteTimeout = 10000

	c.Health.Bind = "0.0.0.0:9200"
	c.Monitoring.Bind = "0.0.0.0:9100"
	c.PProf.Bind = "127.0.0.1:9300"

	return c
}

type Config struct {
	Level      string `mapstructure:"level" json:"level"`
	ConfigFile string `mapstructure:"config" json:"config"`
	NoHeader   bool   `mapstructure:"noheader" json:"noheader"`

	K8S struct {
		NodeName string `mapstructure:"node_name" json:"node_name"`
		PodName  string `mapstructure:"pod_name" json:"pod_name"`
	} `mapstructure:"k8s" json:"k8s"`

	Mongo struct {
		URI      string `mapstructure:"uri" json:"uri"`
		Username string `mapstructure:"username" json:"username"`
		Password string `mapstructure:"password" json:"password"`
		DB       string `mapstructure:"db" json:"db"`
		Direct   bool   `mapstructure:"direct" json:"direct"`
	} `mapstructure:"mongo" json:"mongo"`

	Health struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"health" json:"health"`

	Monitoring struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
		Labels  Labels `mapstructure:"labels" json:"labels"`
	} `mapstructure:"monitoring" json:"monitoring"`

	PProf struct {
		Enabled bool   `mapstructure:"enabled" json:"enabled"`
		Bind    string `mapstructure:"bind" json:"bind"`
	} `mapstructure:"pprof" json:"pprof"`

	Http struct {
		Addr  string `mapstructure:"addr" json:"addr"`
		Ports struct {
			REST     int `mapstructure:"rest" json:"rest"`
			Realtime int `mapstructure:"realtime" json:"realtime"`
		} `mapstructure:"ports" json:"ports"`

		Cookie struct {
			Whitelist []string `mapstructure:"whitelist" json:"whitelist"`
		} `mapstructure:"cookie" json:"cookie"`
	} `mapstructure:"http" json:"http"`

	Realtime struct {
		// milliseconds between server heartbeats
		HeartbeatInterval int `mapstructure:"heartbeat_interval" json:"heartbeat_interval"`
		// outbound frames buffered per connection before pushes are dropped
		SendBuffer int `mapstructure:"send_buffer" json:"send_buffer"`
		// milliseconds allowed for a single frame write
		WriteTimeout int  `mapstructure:"write_timeout" json:"write_timeout"`
		RequireToken bool `mapstructure:"require_token" json:"require_token"`
	} `mapstructure:"realtime" json:"realtime"`

	Credentials struct {
		JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret"`
		// user ids allowed to create notifications on behalf of other users
		Producers []string `mapstructure:"producers" json:"producers"`
	} `mapstructure:"credentials" json:"credentials"`
}

func (c *Config) HeartbeatInterval() time.Duration {
	return time.Duration(c.Realtime.HeartbeatInterval) * time.Millisecond
}

func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Realtime.WriteTimeout) * time.Millisecond
}

type Labels []struct {
	Key   string `mapstructure:"key" json:"key"`
	Value string `mapstructure:"value" json:"value"`
}

func (l Labels) ToPrometheus() prometheus.Labels {
	mp := prometheus.Labels{}

	for _, v := range l {
		mp[v.Key] = v.Value
	}

	return mp
}
