// Package gen emits synthetic firewall traffic logs in the CSV layout
// the watcher tails, for demos and load testing.
package gen

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/logging"
)

// AttackRatio is the fraction of generated lines carrying an attack
// signature instead of normal traffic.
const AttackRatio = 0.3

var attackMessages = []string{
	"SQL injection attempt",
	"XSS attempt",
	"Port scan detected",
	"Brute force SSH",
	"DDoS attack",
	"Malware download",
	"Unauthorized access",
}

var (
	firewalls = []string{"FW-A", "FW-B", "FW-C", "FW-D", "FW-E"}
	actions   = []string{"ACCEPT", "REJECT", "DROP"}
	protocols = []string{"TCP", "UDP", "ICMP"}
	tcpFlags  = []string{"SYN", "ACK", "FIN", "PSH", "RST", "URG", "R5"}
	extras    = []string{"ACK", "SYN", "FIN", "PSH", ""}
	dstPorts  = []int{80, 443, 22, 3389, 8080, 3306, 5432, 21}
)

const sessionAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Options control the generator's pacing and volume.
type Options struct {
	// Count is the number of lines to emit. Zero means run until the
	// context is cancelled.
	Count int
	// MinDelay and MaxDelay bound the jittered pause between lines.
	// Both zero means no pause.
	MinDelay time.Duration
	MaxDelay time.Duration
	Seed     int64
	Clock    clock.Clock
	Logger   *logging.Logger
}

// Generator writes synthetic log lines to an io.Writer.
type Generator struct {
	opts Options
	rng  *rand.Rand
	clk  clock.Clock
	log  *logging.Logger
}

func New(opts Options) *Generator {
	if opts.Clock == nil {
		opts.Clock = &clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = opts.Clock.Now().UnixNano()
	}
	return &Generator{
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)),
		clk:  opts.Clock,
		log:  opts.Logger.WithComponent("gen"),
	}
}

// Run emits lines to w until Count is reached or ctx is cancelled.
func (g *Generator) Run(ctx context.Context, w io.Writer) error {
	emitted := 0
	for {
		if g.opts.Count > 0 && emitted >= g.opts.Count {
			return nil
		}
		line := g.Line()
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("writing log line: %w", err)
		}
		emitted++

		delay := g.delay()
		if delay <= 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

// Line produces one CSV log line. Roughly AttackRatio of lines carry an
// attack message with ALERT status.
func (g *Generator) Line() string {
	timestamp := g.clk.Now().UTC().Format(time.RFC3339)
	fwID := firewalls[g.rng.Intn(len(firewalls))]
	srcIP := g.ip()
	dstIP := g.ip()
	srcPort := 1024 + g.rng.Intn(65535-1024)
	dstPort := dstPorts[g.rng.Intn(len(dstPorts))]
	protocol := protocols[g.rng.Intn(len(protocols))]
	action := actions[g.rng.Intn(len(actions))]
	// Inbound byte counts go negative in captured traces, keep that.
	bytesIn := g.rng.Intn(6001) - 1000
	bytesOut := 100 + g.rng.Intn(9901)
	flag := tcpFlags[g.rng.Intn(len(tcpFlags))]
	sessionID := g.sessionID()

	message := "Normal traffic"
	status := "OK"
	if g.rng.Float64() < AttackRatio {
		message = attackMessages[g.rng.Intn(len(attackMessages))]
		status = "ALERT"
	}
	extra := extras[g.rng.Intn(len(extras))]

	return fmt.Sprintf("%s,%s,%s,%s,%d,%d,%s,%s,%d,%d,%s,%s,,%s,%s,%s",
		timestamp, fwID, srcIP, dstIP, srcPort, dstPort, protocol, action,
		bytesIn, bytesOut, flag, sessionID, message, status, extra)
}

func (g *Generator) ip() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		1+g.rng.Intn(255), 1+g.rng.Intn(255), 1+g.rng.Intn(255), 1+g.rng.Intn(254))
}

func (g *Generator) sessionID() string {
	var b strings.Builder
	for i := 0; i < 12; i++ {
		b.WriteByte(sessionAlphabet[g.rng.Intn(len(sessionAlphabet))])
	}
	return b.String()
}

func (g *Generator) delay() time.Duration {
	if g.opts.MaxDelay <= 0 {
		return 0
	}
	min := g.opts.MinDelay
	if min > g.opts.MaxDelay {
		min = g.opts.MaxDelay
	}
	span := g.opts.MaxDelay - min
	if span <= 0 {
		return min
	}
	return min + time.Duration(g.rng.Int63n(int64(span)))
}
