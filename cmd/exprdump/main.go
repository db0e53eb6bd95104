// Copyright (C) 2023 Karst Data, Inc.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// exprdump decodes serialized expression trees (raw streams or
// sealed envelopes captured from inter-node traffic) and prints
// them back as SQL text.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/karstdb/karst/expr"
	"github.com/karstdb/karst/wire"
)

var rootCmd = &cobra.Command{
	Use:   "exprdump [flags] [file]",
	Short: "decode a serialized expression tree and print it as SQL",
	Long: `Decode a serialized expression tree and print it as SQL.

The input is a sealed wire envelope as captured from inter-node
traffic, or, with --raw, a bare node stream encoded at the version
given with --wire-version. Reads standard input when no file is
given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}
		input, err := readInput(args)
		if err != nil {
			return err
		}
		payload := input
		version := wire.Current
		if !raw {
			env, err := wire.UnmarshalEnvelope(input)
			if err != nil {
				return err
			}
			log.WithFields(log.Fields{
				"query":   env.QueryID,
				"version": env.Version,
				"algo":    env.Algo,
			}).Debug("opened envelope")
			if payload, err = env.Open(); err != nil {
				return err
			}
			version = env.Version
		} else if wireVersion != "" {
			if version, err = wire.ParseVersion(wireVersion); err != nil {
				return err
			}
		}
		r := wire.NewReader(payload, version)
		for r.Len() > 0 {
			node, err := expr.Decode(r)
			if err != nil {
				return err
			}
			sty := expr.Simple
			if qualified {
				sty = expr.Qualified
			}
			fmt.Println(expr.ToString(node, sty))
		}
		return nil
	},
}

var (
	raw         bool
	hexInput    bool
	qualified   bool
	verbose     bool
	wireVersion string
)

func init() {
	rootCmd.Flags().BoolVar(&raw, "raw", false, "input is a bare node stream, not an envelope")
	rootCmd.Flags().BoolVar(&hexInput, "hex", false, "input is hex-encoded")
	rootCmd.Flags().BoolVar(&qualified, "qualified", false, "render schema-qualified function names")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.Flags().StringVar(&wireVersion, "wire-version", "", "protocol version of a --raw stream (e.g. 1.2.0)")
}

func readInput(args []string) ([]byte, error) {
	var data []byte
	var err error
	if len(args) == 1 {
		data, err = os.ReadFile(args[0])
	} else {
		data, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		return nil, err
	}
	if hexInput {
		return hex.DecodeString(strings.TrimSpace(string(data)))
	}
	return data, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
