package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeIni(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "monitord.ini")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeIni(t, `
[reporting]
interval = 300
datapoints_interval = 1200
recipients = ops@example.com, noc@example.com

[email]
host = smtp.example.com
port = 587
secure = true
username = alerts@example.com
password = hunter2

[http]
listen_addr = :9090

[storage]
dsn = postgres://user@host/db

[geoip]
database_path = /var/lib/geoip/GeoLite2-Country.mmdb
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 300*time.Second, cfg.ReportingInterval)
	assert.Equal(t, 1200*time.Second, cfg.DatapointsInterval)
	assert.Equal(t, []string{"ops@example.com", "noc@example.com"}, cfg.Recipients)
	assert.Equal(t, "smtp.example.com", cfg.EmailHost)
	assert.Equal(t, 587, cfg.EmailPort)
	assert.True(t, cfg.EmailSecure)
	assert.Equal(t, ":9090", cfg.HTTPListenAddr)
	assert.Equal(t, "postgres://user@host/db", cfg.StorageDSN)
}

func TestLoadMissingReportingIntervalFails(t *testing.T) {
	path := writeIni(t, `
[email]
host = smtp.example.com
port = 587
`)
	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "reporting.interval", cfgErr.Key)
}

func TestLoadMissingEmailHostFails(t *testing.T) {
	path := writeIni(t, `
[reporting]
interval = 300
`)
	_, err := Load(path)
	require.Error(t, err)
	var cfgErr *Error
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "email.host", cfgErr.Key)
}

func TestLoadDefaultsDatapointsInterval(t *testing.T) {
	path := writeIni(t, `
[reporting]
interval = 300

[email]
host = smtp.example.com
port = 587
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1200*time.Second, cfg.DatapointsInterval)
}
