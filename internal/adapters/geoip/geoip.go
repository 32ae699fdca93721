// Package geoip resolves client IPs to city names for the sheet's
// geo column.
package geoip

import (
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Resolver maps an IP address to a city name. An empty result means
// the lookup failed or was disabled; it never blocks an event.
type Resolver interface {
	City(ip string) string
}

// MaxMind resolves cities from a local MaxMind GeoLite2/GeoIP2 database.
type MaxMind struct {
	reader *geoip2.Reader
}

// NewMaxMind opens the city database at path.
func NewMaxMind(path string) (*MaxMind, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, err
	}
	return &MaxMind{reader: reader}, nil
}

// City returns the English city name for ip, or empty when unknown.
func (m *MaxMind) City(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return ""
	}
	record, err := m.reader.City(parsed)
	if err != nil {
		return ""
	}
	return record.City.Names["en"]
}

// Close releases the database handle.
func (m *MaxMind) Close() error {
	return m.reader.Close()
}

// Noop always resolves to an empty city. Used when no database is
// configured.
type Noop struct{}

// City returns an empty string.
func (Noop) City(_ string) string { return "" }
