package decode

import (
	"testing"
	"time"

	"github.com/corvidsec/eventsleuth/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleXML = `<Event xmlns="http://schemas.microsoft.com/win/2004/08/events/event">
  <System>
    <Provider Name="Microsoft-Windows-Security-Auditing" />
    <EventID>4624</EventID>
    <Version>0</Version>
    <Level>4</Level>
    <Task>12544</Task>
    <Opcode>0</Opcode>
    <Keywords>0x8020000000000000</Keywords>
    <TimeCreated SystemTime="2026-06-01T12:34:56.789123Z" />
    <EventRecordID>918273</EventRecordID>
    <Correlation ActivityID="{12345678-1234-1234-1234-123456789abc}" />
    <Execution ProcessID="4" ThreadID="592" />
    <Channel>Security</Channel>
    <Computer>host01.example.com</Computer>
    <Security UserID="S-1-5-18" />
  </System>
  <EventData>
    <Data Name="SubjectUserSid">S-1-5-18</Data>
    <Data Name="SubjectUserName">SYSTEM</Data>
    <Data>unnamed-value</Data>
  </EventData>
</Event>`

func TestDecodePopulatesSystemFields(t *testing.T) {
	rec, err := Decode(sampleXML, "Security")
	require.NoError(t, err)

	assert.Equal(t, uint32(4624), rec.EventID)
	assert.Equal(t, record.LevelInfo, rec.Level)
	assert.Equal(t, "Informational", rec.LevelName)
	assert.Equal(t, "Microsoft-Windows-Security-Auditing", rec.ProviderName)
	assert.Equal(t, "Security", rec.Channel)
	assert.Equal(t, "host01.example.com", rec.Computer)
	assert.Equal(t, uint32(4), rec.ProcessID)
	assert.Equal(t, uint32(592), rec.ThreadID)
	assert.Equal(t, uint16(12544), rec.Task)
	assert.Equal(t, uint8(0), rec.Opcode)
	assert.Equal(t, uint64(0x8020000000000000), rec.Keywords)
	assert.Equal(t, "{12345678-1234-1234-1234-123456789abc}", rec.ActivityID)
	assert.Equal(t, "S-1-5-18", rec.UserSID)
	assert.Equal(t, uint64(918273), rec.RecordID)
	assert.True(t, rec.Timestamp.Equal(time.Date(2026, 6, 1, 12, 34, 56, 789123000, time.UTC)))
}

func TestDecodeAssignsSyntheticNamesToNamelessEventData(t *testing.T) {
	rec, err := Decode(sampleXML, "Security")
	require.NoError(t, err)

	require.Len(t, rec.EventData, 3)
	assert.Equal(t, "SubjectUserSid", rec.EventData[0].Name)
	assert.Equal(t, "SubjectUserName", rec.EventData[1].Name)
	assert.Equal(t, "Data[2]", rec.EventData[2].Name)
	assert.Equal(t, "unnamed-value", rec.EventData[2].Value)
}

func TestDecodeUnknownLevelClampsToLogAlways(t *testing.T) {
	const xmlBlob = `<Event><System>
    <EventID>1</EventID>
    <Level>42</Level>
    <TimeCreated SystemTime="2026-06-01T00:00:00Z" />
  </System></Event>`

	rec, err := Decode(xmlBlob, "Application")
	require.NoError(t, err)
	assert.Equal(t, record.LevelLogAlways, rec.Level)
	assert.Equal(t, "LogAlways", rec.LevelName)
}

func TestDecodeMissingLevelDefaultsToLogAlways(t *testing.T) {
	const xmlBlob = `<Event><System>
    <EventID>1</EventID>
    <TimeCreated SystemTime="2026-06-01T00:00:00Z" />
  </System></Event>`

	rec, err := Decode(xmlBlob, "Application")
	require.NoError(t, err)
	assert.Equal(t, record.LevelLogAlways, rec.Level)
}

func TestDecodeFallsBackToSourceChannelWhenMissing(t *testing.T) {
	const xmlBlob = `<Event><System>
    <EventID>1</EventID>
    <Level>4</Level>
    <TimeCreated SystemTime="2026-06-01T00:00:00Z" />
  </System></Event>`

	rec, err := Decode(xmlBlob, "Application")
	require.NoError(t, err)
	assert.Equal(t, "Application", rec.Channel)
}

func TestDecodeFallsBackToNowOnUnparseableTimestamp(t *testing.T) {
	const xmlBlob = `<Event><System>
    <EventID>1</EventID>
    <Level>4</Level>
    <TimeCreated SystemTime="not-a-timestamp" />
  </System></Event>`

	before := time.Now().UTC()
	rec, err := Decode(xmlBlob, "Application")
	require.NoError(t, err)
	assert.True(t, !rec.Timestamp.Before(before))
}

func TestDecodeReadsUserDataPairsInOrder(t *testing.T) {
	const xmlBlob = `<Event><System>
    <EventID>16384</EventID>
    <Level>4</Level>
    <TimeCreated SystemTime="2026-06-01T00:00:00Z" />
  </System>
  <UserData>
    <EventXML xmlns="urn:schemas-example-com:eventxml">
      <Name>svc-updater</Name>
      <State>Running</State>
    </EventXML>
  </UserData>
  </Event>`

	rec, err := Decode(xmlBlob, "Application")
	require.NoError(t, err)
	require.Len(t, rec.EventData, 2)
	assert.Equal(t, "Name", rec.EventData[0].Name)
	assert.Equal(t, "svc-updater", rec.EventData[0].Value)
	assert.Equal(t, "State", rec.EventData[1].Name)
	assert.Equal(t, "Running", rec.EventData[1].Value)
}

func TestDecodeReturnsXMLParseErrorOnMalformedInput(t *testing.T) {
	_, err := Decode("<Event><System>", "Application")
	require.Error(t, err)
	var parseErr *record.XMLParseError
	require.ErrorAs(t, err, &parseErr)
}
