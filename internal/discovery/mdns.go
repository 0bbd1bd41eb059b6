// ABOUTME: mDNS service discovery for udp-audio receivers
// ABOUTME: Receivers advertise themselves; senders browse for a destination
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
)

const (
	// ServiceType is the DNS-SD service receivers advertise
	ServiceType = "_udp-audio._udp"

	// Domain is the mDNS browse domain
	Domain = "local"

	// DefaultTimeout bounds one browse
	DefaultTimeout = 3 * time.Second
)

// ErrNoReceiver is returned when a browse finds nothing usable
var ErrNoReceiver = errors.New("no udp-audio receiver found")

// Config holds advertisement configuration
type Config struct {
	ServiceName string
	ID          string
	Port        int
	SampleRate  int
	Logger      *slog.Logger
}

// Manager advertises a receiver until stopped
type Manager struct {
	config Config
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger
}

// Receiver describes a discovered receiver
type Receiver struct {
	Name       string
	ID         string
	Host       string
	Addr       netip.Addr
	Port       uint16
	SampleRate int
}

// String returns "name (addr:port)"
func (r Receiver) String() string {
	return fmt.Sprintf("%s (%s)", r.Name, netip.AddrPortFrom(r.Addr, r.Port))
}

// NewManager creates a discovery manager
func NewManager(config Config) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		config: config,
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}
}

// TXT returns the advertised TXT records
func (m *Manager) TXT() []string {
	txt := []string{"format=s16mono"}
	if m.config.ID != "" {
		txt = append(txt, "id="+m.config.ID)
	}
	if m.config.SampleRate > 0 {
		txt = append(txt, "rate="+strconv.Itoa(m.config.SampleRate))
	}
	return txt
}

// Advertise advertises this receiver via mDNS until Stop is called
func (m *Manager) Advertise() error {
	ips, err := getLocalIPs()
	if err != nil {
		return fmt.Errorf("failed to get local IPs: %w", err)
	}

	service, err := mdns.NewMDNSService(
		m.config.ServiceName,
		ServiceType,
		"",
		"",
		m.config.Port,
		ips,
		m.TXT(),
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.logger.Info("Advertising mDNS service",
		"name", m.config.ServiceName,
		"port", m.config.Port,
		"type", ServiceType)

	go func() {
		<-m.ctx.Done()
		server.Shutdown()
	}()

	return nil
}

// Stop withdraws the advertisement
func (m *Manager) Stop() {
	m.cancel()
}

// Browse queries once for receivers, returning those seen before timeout
func Browse(ctx context.Context, timeout time.Duration, logger *slog.Logger) ([]Receiver, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	entries := make(chan *mdns.ServiceEntry, 16)
	var found []Receiver
	done := make(chan struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			r, ok := parseEntry(entry)
			if !ok {
				logger.Debug("Ignoring mDNS entry", "name", entry.Name)
				continue
			}
			logger.Info("Discovered receiver", "name", r.Name, "addr", r.Addr.String(), "port", r.Port)
			found = append(found, r)
		}
	}()

	params := &mdns.QueryParam{
		Service:     ServiceType,
		Domain:      Domain,
		Timeout:     timeout,
		Entries:     entries,
		DisableIPv6: true,
	}

	err := mdns.QueryContext(ctx, params)
	close(entries)
	<-done

	if err != nil {
		return found, fmt.Errorf("mdns query: %w", err)
	}
	return found, nil
}

// FindReceiver returns the first receiver discovered within timeout
func FindReceiver(ctx context.Context, timeout time.Duration, logger *slog.Logger) (Receiver, error) {
	receivers, err := Browse(ctx, timeout, logger)
	if len(receivers) > 0 {
		return receivers[0], nil
	}
	if err != nil {
		return Receiver{}, err
	}
	return Receiver{}, ErrNoReceiver
}

// parseEntry converts an mDNS answer into a Receiver. Entries without a
// usable address or port are rejected.
func parseEntry(entry *mdns.ServiceEntry) (Receiver, bool) {
	if entry == nil || entry.Port <= 0 || entry.Port > 65535 {
		return Receiver{}, false
	}

	var addr netip.Addr
	for _, ip := range []net.IP{entry.AddrV4, entry.AddrV6} {
		if a, ok := netip.AddrFromSlice(ip); ok && a.IsValid() && !a.IsUnspecified() {
			addr = a.Unmap()
			break
		}
	}
	if !addr.IsValid() {
		return Receiver{}, false
	}

	txt := parseTXT(entry.InfoFields)
	rate, _ := strconv.Atoi(txt["rate"])

	return Receiver{
		Name:       instanceName(entry.Name),
		ID:         txt["id"],
		Host:       entry.Host,
		Addr:       addr,
		Port:       uint16(entry.Port),
		SampleRate: rate,
	}, true
}

// instanceName strips the service and domain suffix from a full entry name
func instanceName(full string) string {
	name, _, _ := strings.Cut(full, "."+ServiceType)
	return strings.ReplaceAll(name, `\ `, " ")
}

// parseTXT splits key=value TXT fields; bare keys map to ""
func parseTXT(fields []string) map[string]string {
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		k, v, _ := strings.Cut(f, "=")
		out[strings.ToLower(k)] = v
	}
	return out
}

// getLocalIPs returns local IP addresses
func getLocalIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				if ipnet.IP.To4() != nil {
					ips = append(ips, ipnet.IP)
				}
			}
		}
	}

	return ips, nil
}
