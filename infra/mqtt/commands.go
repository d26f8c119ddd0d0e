package mqtt

import (
	"encoding/json"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/liftsim/core/model"
	"github.com/kilianp07/liftsim/infra/logger"
)

// Commander is the command surface of the scheduler consumed by the
// transport.
type Commander interface {
	Assign(level int, preferred model.Heading) string
	SelectLevel(unitID, level int)
}

// Subscriber registers a handler on a named topic.
type Subscriber interface {
	Subscribe(name, topic string, handler paho.MessageHandler) error
}

// CommandListener decodes hall calls and cab selections from the command
// topics and forwards them to the scheduler. Range validation happens
// here, at the outer boundary, so malformed traffic is reported in logs
// while the core stays silent.
type CommandListener struct {
	cmd    Commander
	cfg    Config
	levels int
	units  int
	log    logger.Logger
}

// NewCommandListener creates a listener for the given fleet geometry.
func NewCommandListener(cmd Commander, cfg Config, units, levels int, log logger.Logger) *CommandListener {
	if log == nil {
		log = logger.New("mqtt_commands")
	}
	return &CommandListener{cmd: cmd, cfg: cfg, units: units, levels: levels, log: log}
}

// Start subscribes to the call and select topics.
func (l *CommandListener) Start(sub Subscriber) error {
	if err := sub.Subscribe("call", l.cfg.CallTopic, l.onCall); err != nil {
		return err
	}
	return sub.Subscribe("select", l.cfg.SelectTopic, l.onSelect)
}

func (l *CommandListener) onCall(_ paho.Client, msg paho.Message) {
	var call model.HallCall
	if err := json.Unmarshal(msg.Payload(), &call); err != nil {
		l.log.Errorf("decode hall call: %v", err)
		return
	}
	if call.Level < 0 || call.Level >= l.levels {
		l.log.Warnf("hall call level %d outside [0, %d)", call.Level, l.levels)
		return
	}
	id := l.cmd.Assign(call.Level, call.Heading)
	l.log.Debugw("hall call forwarded", map[string]any{
		"level": call.Level, "heading": call.Heading.String(), "request": id,
	})
}

func (l *CommandListener) onSelect(_ paho.Client, msg paho.Message) {
	var sel model.CabSelect
	if err := json.Unmarshal(msg.Payload(), &sel); err != nil {
		l.log.Errorf("decode cab select: %v", err)
		return
	}
	if sel.UnitID < 0 || sel.UnitID >= l.units {
		l.log.Warnf("cab select unit %d outside [0, %d)", sel.UnitID, l.units)
		return
	}
	if sel.Level < 0 || sel.Level >= l.levels {
		l.log.Warnf("cab select level %d outside [0, %d)", sel.Level, l.levels)
		return
	}
	l.cmd.SelectLevel(sel.UnitID, sel.Level)
}
