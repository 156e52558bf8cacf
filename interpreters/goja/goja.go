// Package goja provides states whose hooks are ECMAScript programs.
//
// Each hook runs in a fresh Goja runtime.  The runtime has a single
// global, "_", that exposes the agent and some utilities:
//
//    _.id, _.name, _.now: the agent's id and name and the current time.
//    _.bindings: the agent's bindings.  Changes stick.
//    _.msg: the telegram being handled (message hooks only).
//    _.post(delay, to, type, payload): post a telegram.
//    _.change(name): change to the named state.
//    _.revert(): change back to the previous state.
//    _.inState(name): whether the named state is current.
//    _.log(x): log x as JSON.
//    _.gensym(): generate a unique string (a UUID).
//    _.cronNext(expr): the next time (RFC3339) that matches the cron expression.
//
// A message hook handles a telegram when it returns something truthy.
//
// See https://github.com/dop251/goja.
package goja

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/Comcast/telegraph/util"

	"github.com/dop251/goja"
	"github.com/google/uuid"
	"github.com/gorhill/cronexpr"
)

var (
	// InterruptedMessage is the string value of Interrupted.
	InterruptedMessage = "RuntimeError: timeout"

	// Interrupted is returned by Exec if the execution is
	// interrupted.
	Interrupted = errors.New(InterruptedMessage)
)

// Interpreter compiles and runs hook sources.
type Interpreter struct {
	// Testing is used to expose or hide some runtime
	// capabilities.
	Testing bool

	// Timeout, when positive, bounds each hook's run.
	Timeout time.Duration

	// LibraryProvider resolves the names listed in a source's
	// "requires".  When nil, DefaultLibraryProvider is used.
	LibraryProvider func(ctx context.Context, i *Interpreter, libraryName string) (string, error)
}

// NewInterpreter makes a new Interpreter.
func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a provider for names that are URLs
// with protocols of "file", "http", and "https".  File names are
// relative to the given directory.  There currently is no additional
// control when using HTTP/HTTPS.
func MakeFileLibraryProvider(dir string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			bs, err := ioutil.ReadFile(dir + "/" + parts[1])
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequest("GET", name, nil)
			if err != nil {
				return "", err
			}
			req = req.WithContext(ctx)
			client := http.Client{}
			resp, err := client.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			switch resp.StatusCode {
			case http.StatusOK:
				bs, err := ioutil.ReadAll(resp.Body)
				if err != nil {
					return "", err
				}
				return string(bs), nil
			default:
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) func(context.Context, *Interpreter, string) (string, error) {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

func wrapSrc(src string) string {
	return fmt.Sprintf("(function() {\n%s\n}());\n", src)
}

// parseSource looks into the given map to try to find "requires" and
// "code" properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	x := vv["code"]
	if s, is := x.(string); is {
		code = s
	} else {
		err = errors.New("bad Goja hook code")
		return
	}

	switch vv := vv["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			switch vv := x.(type) {
			case string:
				libs = append(libs, vv)
			default:
				err = errors.New("bad library")
				return
			}
		}
	default:
		err = fmt.Errorf("bad requires (%T)", vv)
	}

	return
}

// AsSource extracts code and required library names from a hook
// source, which is either a string or a map with "code" and optional
// "requires".
//
// Both map[string]interface{} and map[interface{}]interface{} are
// accepted so that callers aren't stuck with one YAML parser.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad Goja source (%T)", src)
		return
	}
}

// Compile prepends any required libraries and calls goja.Compile.
//
// The code is wrapped in a function, so a hook can "return" its
// result.
//
// This method can block if the interpreter's library provider blocks
// in order to obtain external libraries.
func (i *Interpreter) Compile(ctx context.Context, src interface{}) (*goja.Program, error) {
	code, libs, err := AsSource(src)
	if err != nil {
		return nil, err
	}

	code = wrapSrc(code)

	var libsSrc string
	for _, lib := range libs {
		libSrc, err := i.ProvideLibrary(ctx, lib)
		if err != nil {
			return nil, err
		}
		libsSrc += libSrc + "\n"
	}

	code = libsSrc + code

	p, err := goja.Compile("", code, true)
	if err != nil {
		return nil, errors.New(err.Error() + ": " + code)
	}

	return p, nil
}

func protest(o *goja.Runtime, x interface{}) {
	panic(o.ToValue(x))
}

// Binder adds things to a hook's environment.  The runtime is
// provided so that functions can protest.
type Binder func(o *goja.Runtime, env map[string]interface{})

// Exec runs the program with "_" bound to an environment that has
// the standard utilities plus whatever bind adds.
//
// The run is interrupted when ctx is done.
func (i *Interpreter) Exec(ctx context.Context, p *goja.Program, bind Binder) (goja.Value, error) {
	o := goja.New()

	env := map[string]interface{}{}

	if i.Testing {
		o.Set("sleep", func(ms int) {
			time.Sleep(time.Duration(ms) * time.Millisecond)
		})
	}

	env["gensym"] = func() interface{} {
		return uuid.NewString()
	}

	env["cronNext"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		cronExpr, is := x.(string)
		if !is {
			protest(o, "not a string")
		}

		c, err := cronexpr.Parse(cronExpr)
		if err != nil {
			protest(o, err.Error())
		}
		return c.Next(time.Now()).UTC().Format(time.RFC3339Nano)
	}

	env["log"] = func(x interface{}) interface{} {
		switch vv := x.(type) {
		case goja.Value:
			x = vv.Export()
		}
		js, err := json.Marshal(&x)
		if err != nil {
			log.Println("goja.log (can't marshal: " + err.Error() + ")")
		} else {
			log.Println(string(js))
		}

		return x
	}

	if bind != nil {
		bind(o, env)
	}

	o.Set("_", env)

	// We want to make sure that the following goroutine is
	// terminated as soon as possible.
	ictx, cancel := context.WithCancel(ctx)
	go func() {
		<-ictx.Done()
		// If this Exec method calls cancel() after RunProgram
		// returns, then we'll never see this
		// InterruptedMessage, which is actually the behavior
		// we want.  In this case, we weren't actually interrupted.
		o.Interrupt(InterruptedMessage)
	}()

	util.Logf("goja exec")

	v, err := o.RunProgram(p)
	cancel()

	if err != nil {
		if _, is := err.(*goja.InterruptedError); is {
			return nil, Interrupted
		}
		return nil, err
	}

	return v, nil
}

// hookContext returns a context for one hook run.
func (i *Interpreter) hookContext() (context.Context, context.CancelFunc) {
	if 0 < i.Timeout {
		return context.WithTimeout(context.Background(), i.Timeout)
	}
	return context.WithCancel(context.Background())
}
