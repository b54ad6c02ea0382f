package zeroconf

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/MrSnakeDoc/presence/internal/domain"
	"github.com/MrSnakeDoc/presence/internal/logger"
)

// DefaultServices are browsed when no list is configured.
var DefaultServices = []string{
	"_workstation._tcp",
	"_device-info._tcp",
	"_http._tcp",
	"_https._tcp",
	"_ssh._tcp",
	"_smb._tcp",
	"_afpovertcp._tcp",
	"_printer._tcp",
	"_ipp._tcp",
	"_pdl-datastream._tcp",
	"_airplay._tcp",
	"_raop._tcp",
	"_hap._tcp",
	"_companion-link._tcp",
	"_googlecast._tcp",
	"_spotify-connect._tcp",
	"_sonos._tcp",
	"_meshcop._udp",
	"_mqtt._tcp",
	"_webthing._tcp",
}

const (
	DefaultWindow    = 3 * time.Second
	DefaultInterface = "mdns"
	browseDomain     = "local."
)

// Browser discovers services with a native mDNS client and renders the
// results as resolved scan records, so the rest of the pipeline cannot
// tell it from avahi-browse.
type Browser struct {
	services []string
	window   time.Duration
	iface    string
	log      logger.Logger
}

func NewBrowser(services []string, window time.Duration, iface string, log logger.Logger) *Browser {
	if len(services) == 0 {
		services = DefaultServices
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if iface == "" {
		iface = DefaultInterface
	}
	return &Browser{services: services, window: window, iface: iface, log: log}
}

func (b *Browser) Name() string { return "zeroconf" }

// Scan browses every service type in parallel for the configured window.
func (b *Browser) Scan(ctx context.Context) ([]string, error) {
	browseCtx, cancel := context.WithTimeout(ctx, b.window)
	defer cancel()

	var (
		mu       sync.Mutex
		lines    []string
		seen     = make(map[string]struct{})
		failures int
		wg       sync.WaitGroup
	)

	collect := func(entry *zeroconf.ServiceEntry) {
		mu.Lock()
		defer mu.Unlock()
		for _, line := range formatEntry(b.iface, entry) {
			if _, ok := seen[line]; ok {
				continue
			}
			seen[line] = struct{}{}
			lines = append(lines, line)
		}
	}

	for _, service := range b.services {
		wg.Add(1)
		go func(service string) {
			defer wg.Done()
			if err := b.browse(browseCtx, service, collect); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				if b.log != nil {
					b.log.Warn("mdns browse failed", logger.String("service", service), logger.Error(err))
				}
			}
		}(service)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if failures == len(b.services) {
		return nil, fmt.Errorf("mdns browse failed for all %d service types", failures)
	}
	return lines, nil
}

func (b *Browser) browse(ctx context.Context, service string, collect func(*zeroconf.ServiceEntry)) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry, 16)
	if err := resolver.Browse(ctx, service, browseDomain, entries); err != nil {
		return fmt.Errorf("browse %s: %w", service, err)
	}

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return nil
			}
			collect(entry)
		case <-ctx.Done():
			return nil
		}
	}
}

// formatEntry renders one record line per resolved address.
func formatEntry(iface string, entry *zeroconf.ServiceEntry) []string {
	if entry == nil {
		return nil
	}

	host := strings.TrimSuffix(entry.HostName, ".")
	domainName := strings.TrimSuffix(entry.Domain, ".")
	txt := formatText(entry.Text)
	port := ""
	if entry.Port > 0 {
		port = strconv.Itoa(entry.Port)
	}

	var lines []string
	render := func(family string, addr net.IP) {
		fields := []string{
			domain.RecordMarker,
			iface,
			family,
			escapeField(entry.Instance),
			escapeField(entry.Service),
			escapeField(domainName),
			escapeField(host),
			addr.String(),
			port,
			txt,
		}
		lines = append(lines, strings.Join(fields, domain.FieldSeparator))
	}

	for _, addr := range entry.AddrIPv4 {
		render(domain.FamilyIPv4, addr)
	}
	for _, addr := range entry.AddrIPv6 {
		render(domain.FamilyIPv6, addr)
	}
	return lines
}

// formatText quotes each TXT string the way avahi-browse -p prints them.
func formatText(text []string) string {
	quoted := make([]string, 0, len(text))
	for _, t := range text {
		if t == "" {
			continue
		}
		quoted = append(quoted, `"`+escapeField(t)+`"`)
	}
	return strings.Join(quoted, " ")
}

// escapeField keeps the field separator out of values using avahi's
// decimal escape.
func escapeField(s string) string {
	return strings.ReplaceAll(s, domain.FieldSeparator, `\059`)
}
