package gen

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grimm.is/firewatch/internal/clock"
	"grimm.is/firewatch/internal/model"
)

func testGenerator(seed int64) *Generator {
	return New(Options{
		Seed:  seed,
		Clock: clock.NewMockClock(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)),
	})
}

func TestLineParses(t *testing.T) {
	g := testGenerator(1)
	for i := 0; i < 200; i++ {
		line := g.Line()
		ll, err := model.ParseLine(line)
		require.NoError(t, err, "line %d: %s", i, line)
		assert.Equal(t, "2025-03-01T09:00:00Z", ll.Timestamp)
		assert.Contains(t, []string{"OK", "ALERT"}, ll.Status)
		if ll.Status == "ALERT" {
			assert.Contains(t, attackMessages, ll.Explanation)
		} else {
			assert.Equal(t, "Normal traffic", ll.Explanation)
		}
		assert.Len(t, ll.SessionID, 12)
	}
}

func TestLineDeterministicForSeed(t *testing.T) {
	a := testGenerator(42)
	b := testGenerator(42)
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Line(), b.Line())
	}
}

func TestRunEmitsCount(t *testing.T) {
	g := testGenerator(7)
	g.opts.Count = 25

	var sb strings.Builder
	require.NoError(t, g.Run(context.Background(), &sb))

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	assert.Len(t, lines, 25)
}

func TestRunStopsOnCancel(t *testing.T) {
	g := New(Options{
		Seed:     7,
		MinDelay: 10 * time.Millisecond,
		MaxDelay: 20 * time.Millisecond,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var sb strings.Builder
	err := g.Run(ctx, &sb)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEmpty(t, sb.String())
}

func TestAttackRatioRoughlyHolds(t *testing.T) {
	g := testGenerator(99)
	alerts := 0
	const n = 2000
	for i := 0; i < n; i++ {
		if strings.Contains(g.Line(), ",ALERT,") {
			alerts++
		}
	}
	ratio := float64(alerts) / n
	assert.InDelta(t, AttackRatio, ratio, 0.05)
}
