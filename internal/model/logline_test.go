package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLine = "2025-01-01T00:00:00Z,FW-A,1.2.3.4,5.6.7.8,1111,80,TCP,ACCEPT,100,200,SYN,ABC123,,SQL injection attempt,ALERT,"

func TestParseLine(t *testing.T) {
	ll, err := ParseLine(sampleLine)
	require.NoError(t, err)

	assert.Equal(t, "FW-A", ll.FirewallID)
	assert.Equal(t, "1.2.3.4", ll.SrcIP)
	assert.Equal(t, "5.6.7.8", ll.DstIP)
	assert.Equal(t, 1111, ll.SrcPort)
	assert.Equal(t, 80, ll.DstPort)
	assert.Equal(t, "TCP", ll.Protocol)
	assert.Equal(t, "ACCEPT", ll.Action)
	assert.Equal(t, "SQL injection attempt", ll.Explanation)
	assert.Equal(t, "ALERT", ll.Status)
	assert.Equal(t, sampleLine, ll.Raw)
}

func TestParseLine_NegativeByteCounts(t *testing.T) {
	ll, err := ParseLine("2025-01-01T00:00:00Z,FW-B,10.0.0.1,10.0.0.2,4000,443,TCP,DROP,-512,9000,RST,XYZ789,,Normal traffic,OK,ACK")
	require.NoError(t, err)
	assert.Equal(t, int64(-512), ll.BytesIn)
	assert.Equal(t, int64(9000), ll.BytesOut)
	assert.Equal(t, "ACK", ll.Extra)
}

func TestParseLine_TooFewFields(t *testing.T) {
	_, err := ParseLine("just,a,few,fields")
	require.Error(t, err)

	_, err = ParseLine("")
	require.Error(t, err)
}

func TestParseLine_BadNumericField(t *testing.T) {
	_, err := ParseLine("ts,FW-A,1.2.3.4,5.6.7.8,notaport,80,TCP,ACCEPT,100,200,SYN,S1,,msg,OK,")
	require.Error(t, err)
}

func TestFirewallIDFromLine(t *testing.T) {
	assert.Equal(t, "FW-C", FirewallIDFromLine("ts,FW-C,rest", "FW-0001"))
	assert.Equal(t, "FW-0001", FirewallIDFromLine("no commas here", "FW-0001"))
	assert.Equal(t, "FW-0001", FirewallIDFromLine("ts,,rest", "FW-0001"))
}

func TestSeverityDowngrade(t *testing.T) {
	assert.Equal(t, SeverityMedium, SeverityHigh.Downgrade())
	assert.Equal(t, SeverityLow, SeverityMedium.Downgrade())
	assert.Equal(t, SeverityLow, SeverityLow.Downgrade())
}

func TestCategoryFor(t *testing.T) {
	assert.Equal(t, CategorySecurity, CategoryFor(BugSQLInjection))
	assert.Equal(t, CategoryNetwork, CategoryFor(BugPortScan))
	assert.Equal(t, CategoryAccess, CategoryFor(BugUnauthorized))
	assert.Equal(t, CategorySecurity, CategoryFor(BugType("something_new")))
	assert.Equal(t, CategoryValidation, CategoryFor(""))
}
