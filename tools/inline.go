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

package tools

import (
	"io"
	"io/ioutil"
	"log"
	"path/filepath"
	"regexp"

	"github.com/Comcast/telegraph/sio"
)

var inlinePattern = regexp.MustCompile(`%inline *\("([^"]*)"\)`)

// Inline replaces '%inline("NAME")' with f(NAME).
//
// The first error from f stops the replacements.
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	var err error
	acc := inlinePattern.ReplaceAllFunc(bs, func(m []byte) []byte {
		if err != nil {
			return nil
		}
		name := string(inlinePattern.FindSubmatch(m)[1])
		var replacement []byte
		if replacement, err = f(name); err != nil {
			return nil
		}
		log.Printf("debug inlining %s (%d bytes)", name, len(replacement))
		return replacement
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// fromDir returns a function that reads NAMEs relative to dir.
func fromDir(dir string) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		return ioutil.ReadFile(filepath.Join(dir, name))
	}
}

// ReadFileWithInlines is ioutil.ReadFile followed by Inline with NAMEs
// relative to the file's directory.
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Inline(bs, fromDir(filepath.Dir(filename)))
}

// ReadAllWithInlines is ioutil.ReadAll followed by Inline with NAMEs
// relative to the given directory.
func ReadAllWithInlines(in io.Reader, dir string) ([]byte, error) {
	bs, err := ioutil.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return Inline(bs, fromDir(dir))
}

// ReadScenario reads a scenario file after inlining.  The result still
// needs to be compiled.
func ReadScenario(filename string) (*sio.Scenario, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	return sio.ParseScenario(bs)
}
