/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package main is a scenario tool.  It reads a scenario (YAML) from
// stdin, maybe modifies it, and writes it (YAML) to stdout.
package main

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	"github.com/Comcast/telegraph/sio"

	"github.com/jsccast/yaml"
)

func main() {

	if len(os.Args) < 2 {
		Usage()
		os.Exit(1)
	}

	if err := run(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	switch cmd {
	case "yamltojson":
		pretty := false
		switch len(args) {
		case 0:
		case 1:
			if args[0] != "-p" {
				return fmt.Errorf("unsupported args: %v", args)
			}
			pretty = true
		default:
			return fmt.Errorf("unsupported args: %v", args)
		}

		s, err := read(yaml.Unmarshal)
		if err != nil {
			return err
		}

		var bs []byte
		if pretty {
			bs, err = json.MarshalIndent(&s, "  ", "  ")
		} else {
			bs, err = json.Marshal(&s)
		}
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(bs)
		return err

	case "jsontoyaml":
		s, err := read(json.Unmarshal)
		if err != nil {
			return err
		}
		return write(s)

	default:
		mod, have := Mods[cmd]
		if !have {
			Usage()
			return fmt.Errorf("unknown subcommand \"%s\"", cmd)
		}

		if err := mod.Flags().Parse(args); err != nil {
			return err
		}

		s, err := read(yaml.Unmarshal)
		if err != nil {
			return err
		}

		if err := mod.F(s); err != nil {
			return err
		}

		return write(s)
	}
}

func read(unmarshal func([]byte, interface{}) error) (*sio.Scenario, error) {
	bs, err := ioutil.ReadAll(os.Stdin)
	if err != nil {
		return nil, err
	}

	if len(bs) == 0 {
		bs = []byte(DefaultScenarioYAML)
	}

	var s *sio.Scenario
	if err = unmarshal(bs, &s); err != nil {
		return nil, err
	}
	return s, nil
}

func write(s *sio.Scenario) error {
	bs, err := yaml.Marshal(&s)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(bs)
	return err
}

func Usage() {
	fmt.Printf("Subcommands:\n\n")
	for _, mod := range Mods {
		mod.Flags().Usage()
		fmt.Println("  " + mod.Doc())
		fmt.Println()
	}
	fmt.Println("Usage of yamltojson:")
	fmt.Printf("  -p    pretty-print\n\n")
	fmt.Printf("Usage of jsontoyaml: (no arguments)\n\n")
}

var DefaultScenarioYAML = `states:
`
