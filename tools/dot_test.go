/* Copyright 2018-2019 Comcast Cable Communications Management, LLC
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
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDot(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "g.dot")

	out, err := os.Create(filename)
	if err != nil {
		t.Fatal(err)
	}

	if err := Dot(loadWestworld(t), out, "goHomeAndSleep", "eatStew"); err != nil {
		t.Fatal(err)
	}

	bs, err := ioutil.ReadFile(filename)
	if err != nil {
		t.Fatal(err)
	}
	g := string(bs)
	for _, want := range []string{
		"digraph G {",
		`goHomeAndSleep -> eatStew [ color="red"`,
		`enterMineAndDigForNugget -> quenchThirst [ color="black"`,
		`agent0 -> goHomeAndSleep`,
		`agent1 -> wifeGlobal [ style="dotted" label=<global> ]`,
		"location: shack",
	} {
		if !strings.Contains(g, want) {
			t.Fatalf("missing %q in\n%s", want, g)
		}
	}
}
