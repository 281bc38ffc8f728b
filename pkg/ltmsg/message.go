// Package ltmsg defines the control messages an operator can send to the
// drone, the responses the drone sends back, and their wire encoding.
package ltmsg

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind identifies a message variant
type Kind int

const (
	KindPing Kind = iota
	KindSetArm
	KindArmConfirm
	KindSetThrust
	KindSetTarget
	KindSetTune
)

var kindNames = [...]string{
	KindPing:       "Ping",
	KindSetArm:     "SetArm",
	KindArmConfirm: "ArmConfirm",
	KindSetThrust:  "SetThrust",
	KindSetTarget:  "SetTarget",
	KindSetTune:    "SetTune",
}

// String returns the message name as typed by the operator
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// KindFromName looks up a variant by its exact, case-sensitive name
func KindFromName(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Kinds returns every message variant in declaration order
func Kinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kindNames {
		kinds[i] = Kind(i)
	}
	return kinds
}

// Message is a parsed control command. The set of implementations is closed:
// Ping, SetArm, ArmConfirm, SetThrust, SetTarget and SetTune.
type Message interface {
	Kind() Kind
	// String renders the message in the command language. Parsing the
	// result yields an identical message.
	String() string
	sealed()
}

// Ping asks the drone to answer with a Pong
type Ping struct{}

// SetArm arms or disarms the motors
type SetArm struct {
	Armed bool `cbor:"1,keyasint"`
}

// ArmConfirm confirms a pending arm request
type ArmConfirm struct{}

// SetThrust sets the collective thrust
type SetThrust struct {
	Value float32 `cbor:"1,keyasint"`
}

// SetTarget sets the attitude/position target
type SetTarget struct {
	XYZ [3]float32 `cbor:"1,keyasint"`
}

// SetTune sets the PID gains, one entry per axis
type SetTune struct {
	Kp [3]float32 `cbor:"1,keyasint"`
	Ki [3]float32 `cbor:"2,keyasint"`
	Kd [3]float32 `cbor:"3,keyasint"`
}

func (Ping) Kind() Kind       { return KindPing }
func (SetArm) Kind() Kind     { return KindSetArm }
func (ArmConfirm) Kind() Kind { return KindArmConfirm }
func (SetThrust) Kind() Kind  { return KindSetThrust }
func (SetTarget) Kind() Kind  { return KindSetTarget }
func (SetTune) Kind() Kind    { return KindSetTune }

func (Ping) sealed()       {}
func (SetArm) sealed()     {}
func (ArmConfirm) sealed() {}
func (SetThrust) sealed()  {}
func (SetTarget) sealed()  {}
func (SetTune) sealed()    {}

func (Ping) String() string { return KindPing.String() }

func (m SetArm) String() string {
	return fmt.Sprintf("%s(%t)", KindSetArm, m.Armed)
}

func (ArmConfirm) String() string { return KindArmConfirm.String() }

func (m SetThrust) String() string {
	return fmt.Sprintf("%s(%s)", KindSetThrust, FormatFloat(m.Value))
}

func (m SetTarget) String() string {
	return fmt.Sprintf("%s(%s)", KindSetTarget, FormatVec(m.XYZ))
}

func (m SetTune) String() string {
	return fmt.Sprintf("%s(kp: %s, ki: %s, kd: %s)",
		KindSetTune, FormatVec(m.Kp), FormatVec(m.Ki), FormatVec(m.Kd))
}

// FormatFloat renders f with the fewest digits that still parse back to the
// same float32, never in exponent form.
func FormatFloat(f float32) string {
	return strconv.FormatFloat(float64(f), 'f', -1, 32)
}

// FormatVec renders a three element array as "[a, b, c]"
func FormatVec(v [3]float32) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = FormatFloat(f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
