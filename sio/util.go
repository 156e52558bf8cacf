/* Copyright 2019 Comcast Cable Communications Management, LLC
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

package sio

import (
	"encoding/json"
	"fmt"
)

// JS renders its argument as JSON.  Something that can't be
// marshaled is rendered with '%#v'.
func JS(x interface{}) string {
	if x == nil {
		return "null"
	}
	js, err := json.Marshal(&x)
	if err != nil {
		return fmt.Sprintf("%#v", x)
	}
	return string(js)
}

// JShort is JS cut to at most n bytes plus an ellipsis.
func JShort(x interface{}, n int) string {
	s := JS(x)
	if n < len(s) {
		return s[:n] + "..."
	}
	return s
}
