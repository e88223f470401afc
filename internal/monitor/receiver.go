package monitor

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/p0l0/xknx/internal/infrastructure/config"
	"github.com/p0l0/xknx/internal/infrastructure/logging"
)

// ErrNoInterface is returned by Start when the group could not be joined
// on any interface.
var ErrNoInterface = errors.New("monitor: multicast group not joined on any interface")

// Datagram is one UDP payload as received from the network.
type Datagram struct {
	Data   []byte
	Source netip.AddrPort

	// Interface is the receiving interface name, when the platform
	// reports it.
	Interface string

	ReceivedAt time.Time
}

// Receiver listens on the KNXnet/IP port and joins the routing multicast
// group. Unicast datagrams sent to the port are delivered too.
//
// Datagrams are queued on a buffered channel; when the consumer falls behind
// they are dropped and counted.
type Receiver struct {
	cfg    config.MonitorConfig
	group  netip.AddrPort
	logger *logging.Logger

	datagrams chan Datagram
	dropped   atomic.Uint64

	mu      sync.Mutex
	conn    *ipv4.PacketConn
	rawConn net.PacketConn
	started bool
	joined  []string

	// ifNames caches index to name lookups. Only the read loop uses it.
	ifNames map[int]string
}

// NewReceiver creates a receiver for the group. Start must be called to
// open the socket.
func NewReceiver(cfg config.MonitorConfig, group netip.AddrPort, logger *logging.Logger) *Receiver {
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = 1
	}
	return &Receiver{
		cfg:       cfg,
		group:     group,
		logger:    logger,
		datagrams: make(chan Datagram, queue),
	}
}

// Datagrams returns the receive queue. It is closed when the read loop exits.
func (r *Receiver) Datagrams() <-chan Datagram {
	return r.datagrams
}

// Dropped returns the number of datagrams discarded because the queue was full.
func (r *Receiver) Dropped() uint64 {
	return r.dropped.Load()
}

// Start opens the socket, joins the multicast group and starts the read loop.
// The loop stops when ctx is cancelled or Stop is called.
//
// Returns:
//   - error: If the receiver is already started, the port cannot be
//     bound, or ErrNoInterface when no interface joins the group
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return fmt.Errorf("receiver already started")
	}

	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", r.group.Port()))
	if err != nil {
		return fmt.Errorf("listening on port %d: %w", r.group.Port(), err)
	}
	pc := ipv4.NewPacketConn(conn)

	joined, err := r.joinGroup(pc)
	if err == nil && len(joined) == 0 {
		err = ErrNoInterface
	}
	if err != nil {
		conn.Close()
		return fmt.Errorf("joining %s: %w", r.group.Addr(), err)
	}
	r.logger.Info("joined multicast group", "group", r.group.Addr().String(), "interfaces", joined)

	if err := pc.SetControlMessage(ipv4.FlagInterface|ipv4.FlagDst, true); err != nil {
		// Not supported everywhere; Datagram.Interface stays empty.
		r.logger.Warn("control messages unavailable", "error", err)
	}

	r.rawConn = conn
	r.conn = pc
	r.joined = joined
	r.ifNames = make(map[int]string)
	r.started = true

	go r.readLoop(ctx, r.conn)
	go func() {
		<-ctx.Done()
		r.Stop()
	}()

	return nil
}

// LocalAddr returns the bound socket address, or nil before Start.
func (r *Receiver) LocalAddr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rawConn == nil {
		return nil
	}
	return r.rawConn.LocalAddr()
}

// Interfaces returns the names of the interfaces the group was joined on.
func (r *Receiver) Interfaces() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.joined...)
}

// joinGroup joins the group on the configured interface, or on every
// interface that is up and multicast capable.
func (r *Receiver) joinGroup(pc *ipv4.PacketConn) ([]string, error) {
	interfaces, err := r.candidateInterfaces()
	if err != nil {
		return nil, err
	}

	group := &net.UDPAddr{IP: net.IP(r.group.Addr().AsSlice())}
	var joined []string
	for i := range interfaces {
		iface := &interfaces[i]
		if err := pc.JoinGroup(iface, group); err != nil {
			r.logger.Debug("join group failed", "interface", iface.Name, "error", err)
			continue
		}
		joined = append(joined, iface.Name)
	}
	return joined, nil
}

func (r *Receiver) candidateInterfaces() ([]net.Interface, error) {
	if r.cfg.Interface != "" {
		iface, err := net.InterfaceByName(r.cfg.Interface)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", r.cfg.Interface, err)
		}
		return []net.Interface{*iface}, nil
	}

	all, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	var out []net.Interface
	for _, iface := range all {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}
		out = append(out, iface)
	}
	return out, nil
}

func (r *Receiver) readLoop(ctx context.Context, conn *ipv4.PacketConn) {
	defer close(r.datagrams)

	size := r.cfg.ReadBuffer
	if size <= 0 {
		size = defaultReadBuffer
	}
	buf := make([]byte, size)

	for {
		n, cm, src, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			r.logger.Debug("read failed", "error", err)
			continue
		}

		dg := Datagram{
			Data:       append([]byte(nil), buf[:n]...),
			Source:     addrPortOf(src),
			Interface:  r.interfaceName(cm),
			ReceivedAt: time.Now(),
		}

		select {
		case r.datagrams <- dg:
		default:
			r.dropped.Add(1)
		}
	}
}

func (r *Receiver) interfaceName(cm *ipv4.ControlMessage) string {
	if cm == nil || cm.IfIndex <= 0 {
		return ""
	}
	if name, ok := r.ifNames[cm.IfIndex]; ok {
		return name
	}
	var name string
	if iface, err := net.InterfaceByIndex(cm.IfIndex); err == nil {
		name = iface.Name
	}
	r.ifNames[cm.IfIndex] = name
	return name
}

// defaultReadBuffer fits any datagram on an Ethernet link.
const defaultReadBuffer = 1500

func addrPortOf(addr net.Addr) netip.AddrPort {
	if udp, ok := addr.(*net.UDPAddr); ok {
		ap := udp.AddrPort()
		return netip.AddrPortFrom(ap.Addr().Unmap(), ap.Port())
	}
	ap, err := netip.ParseAddrPort(addr.String())
	if err != nil {
		return netip.AddrPort{}
	}
	return ap
}

// Stop closes the socket. Safe to call more than once.
func (r *Receiver) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rawConn != nil {
		r.rawConn.Close()
		r.rawConn = nil
	}
}
