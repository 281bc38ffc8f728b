package ltmsg

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

// ResponseKind identifies a drone response variant
type ResponseKind int

const (
	ResponsePong ResponseKind = iota
	ResponseLog
)

// String returns the response name
func (k ResponseKind) String() string {
	switch k {
	case ResponsePong:
		return "Pong"
	case ResponseLog:
		return "Log"
	default:
		return "Unknown"
	}
}

// Response is a frame sent by the drone back over the link
type Response struct {
	Kind ResponseKind
	Text string
}

// String renders the response for the Remote log
func (r Response) String() string {
	if r.Kind == ResponseLog {
		return fmt.Sprintf("%s(%s)", r.Kind, strconv.Quote(r.Text))
	}
	return r.Kind.String()
}

// EncodeResponse serializes r into a single frame
func EncodeResponse(r Response) ([]byte, error) {
	f := frame{Type: r.Kind.String()}
	if r.Kind == ResponseLog {
		body, err := encMode.Marshal(r.Text)
		if err != nil {
			return nil, errors.Wrap(err, "encode Log body")
		}
		f.Body = body
	}
	data, err := encMode.Marshal(f)
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s frame", f.Type)
	}
	return data, nil
}

// DecodeResponse parses one frame produced by EncodeResponse
func DecodeResponse(data []byte) (Response, error) {
	var f frame
	if err := decMode.Unmarshal(data, &f); err != nil {
		return Response{}, errors.Wrap(err, "decode frame")
	}
	return responseFromFrame(f)
}

func responseFromFrame(f frame) (Response, error) {
	switch f.Type {
	case ResponsePong.String():
		return Response{Kind: ResponsePong}, nil
	case ResponseLog.String():
		r := Response{Kind: ResponseLog}
		if err := decodeBody(f, &r.Text); err != nil {
			return Response{}, err
		}
		return r, nil
	default:
		return Response{}, fmt.Errorf("decode frame: unknown response type %q", f.Type)
	}
}
