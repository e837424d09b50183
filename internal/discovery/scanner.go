package discovery

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"netdiag/internal/diagerr"
)

// ScanConfig controls the scanning behavior.
type ScanConfig struct {
	// RateLimit introduces a delay between ARP requests to avoid overrunning buffers.
	// Defaults to 50µs if unset or <= 0.
	RateLimit time.Duration
	// Wait is how long to listen for replies after the last request.
	// Defaults to 3s if unset or <= 0.
	Wait time.Duration
	// Promisc controls whether we open the interface in promiscuous mode.
	// Defaults to true if unset.
	Promisc *bool
	Logger  *log.Logger
}

func applyDefaults(cfg *ScanConfig) ScanConfig {
	var out ScanConfig
	if cfg != nil {
		out = *cfg
	}
	if out.RateLimit <= 0 {
		out.RateLimit = 50 * time.Microsecond
	}
	if out.Wait <= 0 {
		out.Wait = 3 * time.Second
	}
	if out.Promisc == nil {
		out.Promisc = ptrBool(true)
	}
	if out.Logger == nil {
		out.Logger = log.Default()
	}
	return out
}

// link is the local end of the sweep: the interface attached to the subnet
// and our address on it.
type link struct {
	device string
	mac    net.HardwareAddr
	ip     net.IP
}

// Discover sends an ARP request to every host address in subnet and returns
// the hosts that replied, in the order their first reply arrived. It fails
// with diagerr.ErrCapability when packet capture is not possible here.
func Discover(ctx context.Context, subnet string, cfg *ScanConfig) ([]Device, error) {
	config := applyDefaults(cfg)

	ipNet, err := parseSubnet(subnet)
	if err != nil {
		return nil, err
	}

	l, err := findLink(ipNet)
	if err != nil {
		return nil, err
	}
	config.Logger.Debug("arp sweep", "subnet", subnet, "device", l.device, "source", l.ip)

	// Open handle for reading and writing
	handle, err := pcap.OpenLive(l.device, 65536, *config.Promisc, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("%w: could not open %s: %v", diagerr.ErrCapability, l.device, err)
	}
	defer handle.Close()

	// Set filter to only see ARP replies
	if err := handle.SetBPFFilter("arp"); err != nil {
		return nil, fmt.Errorf("%w: could not set BPF filter: %v", diagerr.ErrCapability, err)
	}

	var (
		mu      sync.Mutex
		seen    = make(map[string]bool)
		devices = make([]Device, 0)
		done    = make(chan struct{})
		wg      sync.WaitGroup
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		src := gopacket.NewPacketSource(handle, layers.LayerTypeEthernet)
		in := src.Packets()

		for {
			select {
			case <-done:
				return
			case packet, ok := <-in:
				if !ok {
					return
				}
				dev, ok := replyFrom(packet, ipNet, l.ip)
				if !ok {
					continue
				}
				mu.Lock()
				if !seen[dev.IP] {
					seen[dev.IP] = true
					devices = append(devices, dev)
				}
				mu.Unlock()
			}
		}
	}()

	stop := func() {
		close(done)
		wg.Wait()
	}

	ticker := time.NewTicker(config.RateLimit)
	defer ticker.Stop()

	for _, target := range hostsIn(ipNet) {
		select {
		case <-ctx.Done():
			stop()
			return nil, ctx.Err()
		case <-ticker.C:
		}

		// Don't scan self
		if target.Equal(l.ip) {
			continue
		}
		if err := sendARPRequest(handle, l, target); err != nil {
			config.Logger.Debug("arp request failed", "target", target, "error", err)
		}
	}

	waitTimer := time.NewTimer(config.Wait)
	defer waitTimer.Stop()

	select {
	case <-ctx.Done():
	case <-waitTimer.C:
	}
	stop()

	mu.Lock()
	defer mu.Unlock()
	result := make([]Device, len(devices))
	copy(result, devices)
	return result, nil
}

// findLink locates the interface with an IPv4 address inside ipNet and the
// pcap device name for it.
func findLink(ipNet *net.IPNet) (link, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return link{}, fmt.Errorf("%w: could not list interfaces: %v", diagerr.ErrCapability, err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			ipnet, ok := addr.(*net.IPNet)
			if !ok {
				continue
			}
			ip4 := ipnet.IP.To4()
			if ip4 == nil || !ipNet.Contains(ip4) {
				continue
			}
			device, err := pcapDevice(iface.Name, ip4)
			if err != nil {
				return link{}, err
			}
			return link{device: device, mac: iface.HardwareAddr, ip: ip4}, nil
		}
	}
	return link{}, fmt.Errorf("%w: no link-layer interface attached to %s", diagerr.ErrCapability, ipNet)
}

// pcapDevice maps an interface to its capture device. Names match on Unix;
// Windows devices are found by address.
func pcapDevice(name string, ip net.IP) (string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return "", fmt.Errorf("%w: packet capture unavailable: %v", diagerr.ErrCapability, err)
	}
	for _, d := range devs {
		if d.Name == name {
			return d.Name, nil
		}
	}
	for _, d := range devs {
		for _, a := range d.Addresses {
			if a.IP.Equal(ip) {
				return d.Name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: no capture device for %s (%s)", diagerr.ErrCapability, name, ip)
}

// replyFrom extracts the sender of an ARP reply from inside ipNet, ignoring
// our own address.
func replyFrom(packet gopacket.Packet, ipNet *net.IPNet, self net.IP) (Device, bool) {
	arpLayer := packet.Layer(layers.LayerTypeARP)
	if arpLayer == nil {
		return Device{}, false
	}
	arp := arpLayer.(*layers.ARP)

	// We only care about replies (Operation 2)
	if arp.Operation != layers.ARPReply {
		return Device{}, false
	}

	ip := net.IP(arp.SourceProtAddress)
	if !ipNet.Contains(ip) || ip.Equal(self) {
		return Device{}, false
	}

	return Device{
		IP:  ip.String(),
		MAC: net.HardwareAddr(arp.SourceHwAddress).String(),
	}, true
}

func ptrBool(v bool) *bool {
	return &v
}

// sendARPRequest sends a single ARP request
func sendARPRequest(handle *pcap.Handle, l link, dstIP net.IP) error {
	data, err := arpRequest(l.mac, l.ip, dstIP)
	if err != nil {
		return err
	}
	return handle.WritePacketData(data)
}

func arpRequest(srcMAC net.HardwareAddr, srcIP, dstIP net.IP) ([]byte, error) {
	eth := layers.Ethernet{
		SrcMAC:       srcMAC,
		DstMAC:       net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff},
		EthernetType: layers.EthernetTypeARP,
	}
	arp := layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         layers.ARPRequest,
		SourceHwAddress:   []byte(srcMAC),
		SourceProtAddress: []byte(srcIP.To4()),
		DstHwAddress:      []byte{0, 0, 0, 0, 0, 0},
		DstProtAddress:    []byte(dstIP.To4()),
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, &eth, &arp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
