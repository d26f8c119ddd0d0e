package mqtt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kilianp07/liftsim/core/logger"
	"github.com/kilianp07/liftsim/core/model"
)

type fakeMessage struct {
	payload []byte
}

func (fakeMessage) Duplicate() bool      { return false }
func (fakeMessage) Qos() byte            { return 0 }
func (fakeMessage) Retained() bool       { return false }
func (fakeMessage) Topic() string        { return "" }
func (fakeMessage) MessageID() uint16    { return 0 }
func (m fakeMessage) Payload() []byte    { return m.payload }
func (fakeMessage) Ack()                 {}

type fakeCommander struct {
	calls   []model.HallCall
	selects []model.CabSelect
}

func (f *fakeCommander) Assign(level int, preferred model.Heading) string {
	f.calls = append(f.calls, model.HallCall{Level: level, Heading: preferred})
	return "req-1"
}

func (f *fakeCommander) SelectLevel(unitID, level int) {
	f.selects = append(f.selects, model.CabSelect{UnitID: unitID, Level: level})
}

func newListener(cmd Commander) *CommandListener {
	var cfg Config
	cfg.SetDefaults()
	return NewCommandListener(cmd, cfg, 3, 10, logger.NopLogger{})
}

func TestOnCall_ForwardsValidCall(t *testing.T) {
	cmd := &fakeCommander{}
	l := newListener(cmd)
	l.onCall(nil, fakeMessage{payload: []byte(`{"level":5,"heading":"up"}`)})
	assert.Len(t, cmd.calls, 1)
	assert.Equal(t, model.HallCall{Level: 5, Heading: model.HeadingUp}, cmd.calls[0])
}

func TestOnCall_RejectsOutOfRange(t *testing.T) {
	cmd := &fakeCommander{}
	l := newListener(cmd)
	l.onCall(nil, fakeMessage{payload: []byte(`{"level":10,"heading":"up"}`)})
	l.onCall(nil, fakeMessage{payload: []byte(`{"level":-1}`)})
	assert.Empty(t, cmd.calls)
}

func TestOnCall_IgnoresMalformedPayload(t *testing.T) {
	cmd := &fakeCommander{}
	l := newListener(cmd)
	l.onCall(nil, fakeMessage{payload: []byte(`not json`)})
	l.onCall(nil, fakeMessage{payload: []byte(`{"level":1,"heading":"sideways"}`)})
	assert.Empty(t, cmd.calls)
}

func TestOnSelect_ValidatesUnitAndLevel(t *testing.T) {
	cmd := &fakeCommander{}
	l := newListener(cmd)
	l.onSelect(nil, fakeMessage{payload: []byte(`{"unit_id":1,"level":4}`)})
	l.onSelect(nil, fakeMessage{payload: []byte(`{"unit_id":3,"level":4}`)})
	l.onSelect(nil, fakeMessage{payload: []byte(`{"unit_id":0,"level":10}`)})
	assert.Equal(t, []model.CabSelect{{UnitID: 1, Level: 4}}, cmd.selects)
}

func TestStart_SubscribesCommandTopics(t *testing.T) {
	mc := &mockClient{}
	client := &PahoClient{cli: mc, logger: logger.NopLogger{}}
	l := newListener(&fakeCommander{})
	assert.NoError(t, l.Start(client))
	assert.Contains(t, mc.subs, "lift/call")
	assert.Contains(t, mc.subs, "lift/select")
}
