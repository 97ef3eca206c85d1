// Package config loads the app's ini-backed configuration (spec.md
// §6), the way the teacher's pkg/od parser loads EDS object
// dictionaries with the same gopkg.in/ini.v1 library — here it
// configures the monitoring server rather than a CANopen node.
package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/ini.v1"
)

// Error reports a missing or malformed required configuration key
// (spec.md §7's ConfigurationError: "refuse to start the periodic
// task").
type Error struct {
	Key string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Config holds every key this core consumes (spec.md §6).
type Config struct {
	DatapointsInterval time.Duration
	ReportingInterval  time.Duration
	Recipients         []string

	EmailHost     string
	EmailPort     int
	EmailSecure   bool
	EmailUsername string
	EmailPassword string

	HTTPListenAddr string
	StorageDSN     string
	GeoIPDatabase  string
}

// Load reads path as an ini file and validates the required keys,
// returning a *Error wrapping the first missing/malformed one.
func Load(path string) (*Config, error) {
	f, err := ini.Load(path)
	if err != nil {
		return nil, &Error{Key: path, Err: err}
	}
	return fromFile(f)
}

func fromFile(f *ini.File) (*Config, error) {
	reporting := f.Section("reporting")
	email := f.Section("email")
	http := f.Section("http")
	storage := f.Section("storage")
	geoip := f.Section("geoip")

	datapointsSeconds := reporting.Key("datapoints_interval").MustInt(1200)
	intervalSeconds, err := reporting.Key("interval").Int()
	if err != nil {
		return nil, &Error{Key: "reporting.interval", Err: err}
	}

	recipientsRaw := reporting.Key("recipients").String()
	var recipients []string
	for _, r := range strings.Split(recipientsRaw, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			recipients = append(recipients, r)
		}
	}

	host := email.Key("host").String()
	if host == "" {
		return nil, &Error{Key: "email.host", Err: fmt.Errorf("required")}
	}
	port, err := email.Key("port").Int()
	if err != nil {
		return nil, &Error{Key: "email.port", Err: err}
	}

	cfg := &Config{
		DatapointsInterval: time.Duration(datapointsSeconds) * time.Second,
		ReportingInterval:  time.Duration(intervalSeconds) * time.Second,
		Recipients:         recipients,
		EmailHost:          host,
		EmailPort:          port,
		EmailSecure:        email.Key("secure").MustBool(false),
		EmailUsername:      email.Key("username").String(),
		EmailPassword:      email.Key("password").String(),
		HTTPListenAddr:      http.Key("listen_addr").MustString(":8080"),
		StorageDSN:          storage.Key("dsn").String(),
		GeoIPDatabase:       geoip.Key("database_path").String(),
	}
	return cfg, nil
}
