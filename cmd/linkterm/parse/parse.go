// Package parse implements the offline "parse" command: it checks a command
// line without a drone attached and shows the frame that would be sent.
package parse

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/txn2/linkterm/pkg/ltlang"
	"github.com/txn2/linkterm/pkg/ltmsg"
)

var Cmd = &cobra.Command{
	Use:   "parse <command>",
	Short: "Parse a command and print its canonical form and CBOR frame",
	Example: "  linkterm parse 'SetTarget([1 2 3])'\n" +
		"  linkterm parse SetArm\\(true\\)\n" +
		"  linkterm parse 'SetTune(kp: [1,1,1], ki: [0,0,0], kd: [0,0,0])'",
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		msg, err := ltlang.ParseString(text)
		if err != nil {
			var pe *ltlang.ParseError
			if errors.As(err, &pe) {
				offset := pe.Offset
				if offset > len(text) {
					offset = len(text)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "%s\n%s^\n", text, strings.Repeat(" ", len([]rune(text[:offset]))))
			}
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			return err
		}

		frame, err := ltmsg.Encode(msg)
		if err != nil {
			return errors.Wrap(err, "encode")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\nCBOR: %s\n", msg, hex.EncodeToString(frame))
		return nil
	},
}
