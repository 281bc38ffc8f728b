package ltmsg

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// Frames on the drone link are CBOR maps {1: name, 2: body}. The name is the
// variant name so firmware and console can evolve the body independently.
type frame struct {
	Type string          `cbor:"1,keyasint"`
	Body cbor.RawMessage `cbor:"2,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("ltmsg: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic("ltmsg: CBOR decoder initialization failed: " + err.Error())
	}
}

// Encode serializes m into a single self-delimiting frame
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("encode: nil message")
	}

	var f frame
	f.Type = m.Kind().String()

	switch m.(type) {
	case Ping, ArmConfirm:
	default:
		body, err := encMode.Marshal(m)
		if err != nil {
			return nil, errors.Wrapf(err, "encode %s body", f.Type)
		}
		f.Body = body
	}

	data, err := encMode.Marshal(f)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s frame", f.Type)
	}
	return data, nil
}

// Decode parses one frame produced by Encode
func Decode(data []byte) (Message, error) {
	var f frame
	if err := decMode.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "decode frame")
	}
	return fromFrame(f)
}

func fromFrame(f frame) (Message, error) {
	kind, ok := KindFromName(f.Type)
	if !ok {
		return nil, fmt.Errorf("decode frame: unknown message type %q", f.Type)
	}

	var (
		m   Message
		err error
	)
	switch kind {
	case KindPing:
		m = Ping{}
	case KindArmConfirm:
		m = ArmConfirm{}
	case KindSetArm:
		var v SetArm
		err = decodeBody(f, &v)
		m = v
	case KindSetThrust:
		var v SetThrust
		err = decodeBody(f, &v)
		m = v
	case KindSetTarget:
		var v SetTarget
		err = decodeBody(f, &v)
		m = v
	case KindSetTune:
		var v SetTune
		err = decodeBody(f, &v)
		m = v
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}

func decodeBody(f frame, v any) error {
	if len(f.Body) == 0 {
		return fmt.Errorf("decode frame: %s without body", f.Type)
	}
	if err := decMode.Unmarshal(f.Body, v); err != nil {
		return errors.Wrapf(err, "decode %s body", f.Type)
	}
	return nil
}

// Decoder reads consecutive frames from a byte stream
type Decoder struct {
	dec *cbor.Decoder
}

// NewDecoder returns a Decoder reading from r
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: decMode.NewDecoder(r)}
}

// DecodeMessage reads the next frame as a control message
func (d *Decoder) DecodeMessage() (Message, error) {
	var f frame
	if err := d.dec.Decode(&f); err != nil {
		return nil, err
	}
	return fromFrame(f)
}

// DecodeResponse reads the next frame as a drone response
func (d *Decoder) DecodeResponse() (Response, error) {
	var f frame
	if err := d.dec.Decode(&f); err != nil {
		return Response{}, err
	}
	return responseFromFrame(f)
}
