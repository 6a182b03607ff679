package wsserver

import (
	"errors"
	"fmt"

	"github.com/valyala/fastjson"

	"github.com/rzbill/calclog/internal/logstore"
)

// Event names on the push channel.
const (
	EventLog    = "log"
	EventNewLog = "new-log"
)

// Envelope is the frame shape in both directions.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

var errMalformed = errors.New("malformed frame")

// parseFrame reads an inbound envelope. Only the "log" event carries a draft;
// other events return ok=false.
func parseFrame(p *fastjson.Parser, frame []byte) (logstore.Draft, bool, error) {
	v, err := p.ParseBytes(frame)
	if err != nil {
		return logstore.Draft{}, false, fmt.Errorf("%w: %v", errMalformed, err)
	}
	if string(v.GetStringBytes("event")) != EventLog {
		return logstore.Draft{}, false, nil
	}
	data := v.Get("data")
	if data == nil || data.Type() != fastjson.TypeObject {
		return logstore.Draft{}, false, fmt.Errorf("%w: data must be an object", errMalformed)
	}
	expr := data.Get("expression")
	if expr == nil || expr.Type() != fastjson.TypeString {
		return logstore.Draft{}, false, fmt.Errorf("%w: expression must be a string", errMalformed)
	}
	d := logstore.Draft{Expression: string(expr.GetStringBytes())}
	if iv := data.Get("isValid"); iv != nil {
		b, err := iv.Bool()
		if err != nil {
			return logstore.Draft{}, false, fmt.Errorf("%w: isValid: %v", errMalformed, err)
		}
		d.IsValid = b
	}
	if ov := data.Get("output"); ov != nil && ov.Type() != fastjson.TypeNull {
		f, err := ov.Float64()
		if err != nil {
			return logstore.Draft{}, false, fmt.Errorf("%w: output: %v", errMalformed, err)
		}
		d.Output = &f
	}
	if sv := data.Get("status"); sv != nil && sv.Type() != fastjson.TypeNull {
		s, err := sv.StringBytes()
		if err != nil {
			return logstore.Draft{}, false, fmt.Errorf("%w: status: %v", errMalformed, err)
		}
		d.Status = logstore.Status(s)
	}
	return d, true, nil
}
