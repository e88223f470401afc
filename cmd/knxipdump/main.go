// knxipdump decodes, builds and inspects KNXnet/IP frames, lists frames
// stored by knxipmon, and shows live routing traffic in a terminal view.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/netip"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/creachadair/command"
	"github.com/creachadair/flax"
	"github.com/kr/pretty"

	"github.com/p0l0/xknx/internal/auth"
	"github.com/p0l0/xknx/internal/capture"
	"github.com/p0l0/xknx/internal/dpt"
	"github.com/p0l0/xknx/internal/infrastructure/config"
	"github.com/p0l0/xknx/internal/infrastructure/database"
	"github.com/p0l0/xknx/internal/infrastructure/logging"
	"github.com/p0l0/xknx/internal/knxip"
	"github.com/p0l0/xknx/internal/knxip/cemi"
	"github.com/p0l0/xknx/internal/monitor"
	"github.com/p0l0/xknx/internal/tui"
)

// stdout is swapped in tests.
var stdout io.Writer = os.Stdout

var decodeArgs struct {
	JSON bool   `flag:"json,Print the JSON summary instead of the decoded structure"`
	DPT  string `flag:"dpt,Decode the group value as this datapoint type (e.g. 9.001)"`
}

var groupArgs struct {
	DPT    string `flag:"dpt,default=1.001,Datapoint type of the value"`
	Source string `flag:"source,default=0.0.0,Sender individual address"`
}

var connectArgs struct {
	Type  string `flag:"type,default=tunnel,Connection type: tunnel, device-mgmt, remlog, remconf or objsvr"`
	Layer string `flag:"layer,default=link,Tunnel layer: link, raw or busmonitor"`
}

var capturesArgs struct {
	DB      string `flag:"db,default=./data/knxipmon.db,Capture database path"`
	Limit   int    `flag:"limit,default=20,Maximum number of captures to list"`
	Service string `flag:"service,Only list this service type (name or 0x code)"`
	Status  string `flag:"status,Only list this status: ok, degraded or error"`
}

var groupsArgs struct {
	DB      string `flag:"db,default=./data/knxipmon.db,Capture database path"`
	Limit   int    `flag:"limit,default=50,Maximum number of addresses to list"`
	Devices bool   `flag:"devices,List sending devices instead of group addresses"`
}

var tokenArgs struct {
	Secret string        `flag:"secret,HS256 signing secret (default $KNXIP_API_JWT_SECRET)"`
	TTL    time.Duration `flag:"ttl,default=24h,Token lifetime"`
}

var watchArgs struct {
	Group     string `flag:"group,default=224.0.23.12:3671,Routing multicast group and port"`
	Interface string `flag:"interface,Join the group on this interface only"`
	Config    string `flag:"config,Decode group values using monitor.group_types from this config file"`
}

func newRoot() *command.C {
	return &command.C{
		Name:  "knxipdump",
		Usage: "command args...",
		Help:  "Decode, build and inspect KNXnet/IP frames.",
		Commands: []*command.C{
			{
				Name:     "decode",
				Usage:    "decode hex...",
				Help:     "Decode one or more frames given as hex. Spaces and colons are ignored.",
				SetFlags: command.Flags(flax.MustBind, &decodeArgs),
				Run:      command.Adapt(runDecode),
			},
			{
				Name:  "encode",
				Usage: "encode args...",
				Help:  "Build a frame and print it as hex.",
				Commands: []*command.C{
					{
						Name:  "search",
						Usage: "search discovery-endpoint",
						Help:  "Build a SEARCH_REQUEST for the given ip:port.",
						Run:   command.Adapt(runEncodeSearch),
					},
					{
						Name:     "connect",
						Usage:    "connect control-endpoint data-endpoint",
						Help:     "Build a CONNECT_REQUEST. Use 0.0.0.0:0 to route back to the sender.",
						SetFlags: command.Flags(flax.MustBind, &connectArgs),
						Run:      command.Adapt(runEncodeConnect),
					},
					{
						Name:  "state",
						Usage: "state channel control-endpoint",
						Help:  "Build a CONNECTIONSTATE_REQUEST.",
						Run:   command.Adapt(runEncodeState),
					},
					{
						Name:  "disconnect",
						Usage: "disconnect channel control-endpoint",
						Help:  "Build a DISCONNECT_REQUEST.",
						Run:   command.Adapt(runEncodeDisconnect),
					},
					{
						Name:     "group-write",
						Usage:    "group-write group-address value",
						Help:     "Build a ROUTING_INDICATION writing value to a group address, e.g. 1/2/3 21.5 --dpt 9.001.",
						SetFlags: command.Flags(flax.MustBind, &groupArgs),
						Run:      command.Adapt(runEncodeGroupWrite),
					},
					{
						Name:     "group-read",
						Usage:    "group-read group-address",
						Help:     "Build a ROUTING_INDICATION reading a group address.",
						SetFlags: command.Flags(flax.MustBind, &groupArgs),
						Run:      command.Adapt(runEncodeGroupRead),
					},
				},
			},
			{
				Name:     "captures",
				Usage:    "captures",
				Help:     "List frames stored by knxipmon, newest first.",
				SetFlags: command.Flags(flax.MustBind, &capturesArgs),
				Run:      command.Adapt(runCaptures),
			},
			{
				Name:     "groups",
				Usage:    "groups",
				Help:     "List group addresses (or --devices) seen by knxipmon, most recent first.",
				SetFlags: command.Flags(flax.MustBind, &groupsArgs),
				Run:      command.Adapt(runGroups),
			},
			{
				Name:     "token",
				Usage:    "token subject",
				Help:     "Issue an API bearer token for subject.",
				SetFlags: command.Flags(flax.MustBind, &tokenArgs),
				Run:      command.Adapt(runToken),
			},
			{
				Name:     "watch",
				Usage:    "watch",
				Help:     "Join the routing group and show live traffic.",
				SetFlags: command.Flags(flax.MustBind, &watchArgs),
				Run:      command.Adapt(runWatch),
			},
			command.HelpCommand(nil),
			command.VersionCommand(),
		},
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	env := newRoot().NewEnv(nil).SetContext(ctx)
	command.RunOrFail(env, os.Args[1:])
}

func parseHex(s string) ([]byte, error) {
	data, err := hex.DecodeString(strings.NewReplacer(" ", "", ":", "").Replace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid hex %q: %w", s, err)
	}
	return data, nil
}

func runDecode(env *command.Env, frames ...string) error {
	if len(frames) == 0 {
		return env.Usagef("decode requires at least one frame")
	}

	var types dpt.Resolver
	if decodeArgs.DPT != "" {
		d, err := dpt.Parse(decodeArgs.DPT)
		if err != nil {
			return env.Usagef("invalid --dpt: %v", err)
		}
		types = dpt.Fixed(d)
	}

	var errs []error
	for _, arg := range frames {
		data, err := parseHex(arg)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		ev := monitor.DecodeDatagram(monitor.Datagram{Data: data, ReceivedAt: time.Now()})
		if err := monitor.DecodeValue(&ev, types); err != nil {
			errs = append(errs, err)
		}
		if decodeArgs.JSON {
			out, err := json.MarshalIndent(monitor.Summarize(ev), "", "  ")
			if err != nil {
				return fmt.Errorf("marshalling summary: %w", err)
			}
			fmt.Fprintf(stdout, "%s\n", out)
			continue
		}

		fmt.Fprintf(stdout, "%s (%d bytes): %s\n", serviceLabel(ev.Record.ServiceType), len(data), ev.Record.Status)
		if ev.Record.Error != "" {
			fmt.Fprintf(stdout, "  %s\n", ev.Record.Error)
		}
		if ev.Frame != nil {
			fmt.Fprintf(stdout, "  %# v\n", pretty.Formatter(ev.Frame.Body))
		}
		if ev.Value != nil {
			fmt.Fprintf(stdout, "  value (%s): %s\n", ev.Value.DPT, ev.Value)
		}
		if ev.Err != nil {
			errs = append(errs, ev.Err)
		}
	}
	return errors.Join(errs...)
}

func printFrame(body knxip.Body) error {
	data, err := knxip.NewFrame(body).Encode()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", body.ServiceType(), err)
	}
	fmt.Fprintln(stdout, hex.EncodeToString(data))
	return nil
}

func runEncodeSearch(_ *command.Env, endpoint string) error {
	hpai, err := knxip.ParseHPAI(endpoint)
	if err != nil {
		return err
	}
	return printFrame(&knxip.SearchRequest{DiscoveryEndpoint: hpai})
}

var connectionTypes = map[string]knxip.ConnectRequestType{
	"tunnel":      knxip.TunnelConnection,
	"device-mgmt": knxip.DeviceMgmtConnection,
	"remlog":      knxip.RemlogConnection,
	"remconf":     knxip.RemconfConnection,
	"objsvr":      knxip.ObjsvrConnection,
}

var tunnelLayers = map[string]knxip.TunnelLayer{
	"link":       knxip.TunnelLinkLayer,
	"raw":        knxip.TunnelRaw,
	"busmonitor": knxip.TunnelBusmonitor,
}

func runEncodeConnect(env *command.Env, control, data string) error {
	typ, ok := connectionTypes[connectArgs.Type]
	if !ok {
		return env.Usagef("unknown connection type %q", connectArgs.Type)
	}
	ctrl, err := knxip.ParseHPAI(control)
	if err != nil {
		return fmt.Errorf("control endpoint: %w", err)
	}
	dataEP, err := knxip.ParseHPAI(data)
	if err != nil {
		return fmt.Errorf("data endpoint: %w", err)
	}

	req := knxip.NewConnectRequest(typ, ctrl, dataEP)
	if typ == knxip.TunnelConnection {
		layer, ok := tunnelLayers[connectArgs.Layer]
		if !ok {
			return env.Usagef("unknown tunnel layer %q", connectArgs.Layer)
		}
		req.TunnelLayer = layer
	}
	return printFrame(req)
}

func parseChannel(s string) (uint8, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("channel must be 0-255: %w", err)
	}
	return uint8(n), nil
}

func runEncodeState(_ *command.Env, channel, control string) error {
	ch, err := parseChannel(channel)
	if err != nil {
		return err
	}
	hpai, err := knxip.ParseHPAI(control)
	if err != nil {
		return err
	}
	req := &knxip.ConnectionStateRequest{}
	req.ChannelID = ch
	req.ControlEndpoint = hpai
	return printFrame(req)
}

func runEncodeDisconnect(_ *command.Env, channel, control string) error {
	ch, err := parseChannel(channel)
	if err != nil {
		return err
	}
	hpai, err := knxip.ParseHPAI(control)
	if err != nil {
		return err
	}
	req := &knxip.DisconnectRequest{}
	req.ChannelID = ch
	req.ControlEndpoint = hpai
	return printFrame(req)
}

func groupFrame(env *command.Env, address string) (cemi.GroupAddress, cemi.IndividualAddress, error) {
	ga, err := cemi.ParseGroupAddress(address)
	if err != nil {
		return ga, 0, err
	}
	src, err := cemi.ParseIndividualAddress(groupArgs.Source)
	if err != nil {
		return ga, 0, env.Usagef("invalid --source: %v", err)
	}
	return ga, src, nil
}

func runEncodeGroupWrite(env *command.Env, address, value string) error {
	ga, src, err := groupFrame(env, address)
	if err != nil {
		return err
	}
	d, err := dpt.Parse(groupArgs.DPT)
	if err != nil {
		return env.Usagef("invalid --dpt: %v", err)
	}
	payload, err := dpt.Encode(d, value)
	if err != nil {
		return err
	}

	// Short types travel in the APCI octet; the rest follow it.
	var bits uint8
	if d.Short() {
		bits, payload = payload[0], nil
	}
	frame := cemi.NewGroupFrame(cemi.LDataInd, src, ga, cemi.GroupValueWrite, bits, payload)
	return printFrame(knxip.NewRoutingIndication(frame))
}

func runEncodeGroupRead(env *command.Env, address string) error {
	ga, src, err := groupFrame(env, address)
	if err != nil {
		return err
	}
	frame := cemi.NewGroupFrame(cemi.LDataInd, src, ga, cemi.GroupValueRead, 0, nil)
	return printFrame(knxip.NewRoutingIndication(frame))
}

func runCaptures(env *command.Env) error {
	filter := capture.Filter{Limit: capturesArgs.Limit, Status: capture.Status(capturesArgs.Status)}
	if capturesArgs.Service != "" {
		st, err := knxip.ParseServiceType(capturesArgs.Service)
		if err != nil {
			return env.Usagef("invalid --service: %v", err)
		}
		filter.ServiceType = st
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return env.Usagef("invalid --status %q", capturesArgs.Status)
	}

	db, err := openDB(capturesArgs.DB)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only use

	res, err := capture.NewSQLiteRepository(db.DB).List(env.Context(), filter)
	if err != nil {
		return fmt.Errorf("listing captures: %w", err)
	}

	for _, rec := range res.Records {
		line := fmt.Sprintf("%s %s %-21s %-28s %-8s",
			rec.ReceivedAt.Format(time.RFC3339Nano), rec.ID, rec.Source, serviceLabel(rec.ServiceType), rec.Status)
		if rec.Error != "" {
			line += " " + rec.Error
		}
		fmt.Fprintln(stdout, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(stdout, "%d of %d captures\n", len(res.Records), res.Total)
	return nil
}

// openDB opens an existing capture database read-only so a running
// monitor keeps the only writer.
func openDB(path string) (*database.DB, error) {
	db, err := database.OpenReadOnly(path)
	if err != nil {
		return nil, fmt.Errorf("capture database: %w", err)
	}
	return db, nil
}

func runGroups(env *command.Env) error {
	db, err := openDB(groupsArgs.DB)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // Read-only use

	dir := capture.NewAddressRecorder(db.DB, logging.Discard())
	if groupsArgs.Devices {
		devices, err := dir.Devices(env.Context(), groupsArgs.Limit)
		if err != nil {
			return err
		}
		for _, d := range devices {
			fmt.Fprintf(stdout, "%-10s %6d  %s\n", d.Address, d.MessageCount, d.LastSeen.Format(time.RFC3339))
		}
		fmt.Fprintf(stdout, "%d devices\n", len(devices))
		return nil
	}

	groups, err := dir.Groups(env.Context(), groupsArgs.Limit)
	if err != nil {
		return err
	}
	for _, g := range groups {
		line := fmt.Sprintf("%-9s %6d  %s  from %-10s %s",
			g.Address, g.MessageCount, g.LastSeen.Format(time.RFC3339), g.LastSource, g.LastValue)
		fmt.Fprintln(stdout, strings.TrimRight(line, " "))
	}
	fmt.Fprintf(stdout, "%d group addresses\n", len(groups))
	return nil
}

func runToken(env *command.Env, subject string) error {
	secret := tokenArgs.Secret
	if secret == "" {
		secret = os.Getenv("KNXIP_API_JWT_SECRET")
	}
	if secret == "" {
		return env.Usagef("a signing secret is required (--secret or KNXIP_API_JWT_SECRET)")
	}

	token, err := auth.GenerateToken(subject, secret, tokenArgs.TTL)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	return nil
}

func runWatch(env *command.Env) error {
	group, err := netip.ParseAddrPort(watchArgs.Group)
	if err != nil {
		return env.Usagef("invalid --group %q: %v", watchArgs.Group, err)
	}

	ctx, cancel := context.WithCancel(env.Context())
	defer cancel()

	var types dpt.Registry
	if watchArgs.Config != "" {
		cfg, err := config.Load(watchArgs.Config)
		if err != nil {
			return err
		}
		types = cfg.GroupTypes()
	}

	// The TUI owns the terminal; errors and warnings are not shown.
	logger := logging.Discard()
	receiver := monitor.NewReceiver(config.MonitorConfig{
		Interface:  watchArgs.Interface,
		QueueSize:  256,
		ReadBuffer: 1500,
	}, group, logger)
	if err := receiver.Start(ctx); err != nil {
		return fmt.Errorf("starting receiver: %w", err)
	}
	defer receiver.Stop()

	feed := tui.NewFeed(tui.DefaultFeedSize)
	stats := monitor.NewStats()
	pipeline := monitor.NewPipeline(logger, stats, feed)
	pipeline.SetGroupTypes(types)
	go pipeline.Run(ctx, receiver, 0)

	p := tea.NewProgram(tui.NewModel(stats, feed, group.String()), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running TUI: %w", err)
	}
	return nil
}

func serviceLabel(st knxip.ServiceType) string {
	if st == 0 {
		return "UNKNOWN"
	}
	return st.String()
}
