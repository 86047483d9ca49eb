// Package shell is the interactive integrand prompt.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/abiosoft/ishell"

	"github.com/njchilds90/integrand"
	"github.com/njchilds90/integrand/internal/dispatch"
	"github.com/njchilds90/integrand/internal/input"
	"github.com/njchilds90/integrand/internal/mathtext"
	"github.com/njchilds90/integrand/internal/plot"
	"github.com/njchilds90/integrand/internal/speech"
)

// InputHelp is printed by the help-input command.
const InputHelp = `How to write expressions

Basic rules
  x**2 or x^2        powers
  3*x or 3x          multiplication
  (x+1)**2           grouping
  sqrt(x), cbrt(x)   roots

Supported functions
  trig          sin cos tan cot sec csc
  inverse trig  asin acos atan acot asec acsc
  exp / log     exp(x)  ln(x)  log(x)
  hyperbolic    sinh cosh tanh
  other         abs(x)

Spoken phrases are understood too:
  "x squared plus 2 x plus 1"
  "sine of x"   "square root of x"   "e to the power of 2 x"

Examples
  x**2 + sin(x) - ln(x)
  (x + 2)**3
  exp(x) * cos(x)

Only the variable x is allowed.`

// ShellCtxt carries the state shared by all commands.
type ShellCtxt struct {
	ctx      context.Context
	solver   *integrand.Solver
	listener *speech.Listener
	last     *integrand.Response
}

// New builds the shell. listener may be nil, which disables listen.
func New(ctx context.Context, solver *integrand.Solver, listener *speech.Listener) *ishell.Shell {
	sctx := &ShellCtxt{ctx: ctx, solver: solver, listener: listener}

	shell := ishell.New()
	shell.SetPrompt("∫ > ")
	shell.Println("integrand: type help for commands, help-input for expression syntax")

	shell.AddCmd(solveCmd(sctx, "integrate", dispatch.Indefinite,
		"indefinite integral, usage: integrate <expression>"))
	shell.AddCmd(solveCmd(sctx, "definite", dispatch.DefiniteSigned,
		"signed definite integral, usage: definite <lower> <upper> <expression>"))
	shell.AddCmd(solveCmd(sctx, "area", dispatch.DefiniteAbsoluteArea,
		"total bounded area, usage: area <lower> <upper> <expression>"))
	shell.AddCmd(normalizeCmd())
	shell.AddCmd(listenCmd(sctx))
	shell.AddCmd(plotCmd(sctx))
	shell.AddCmd(&ishell.Cmd{
		Name: "help-input",
		Help: "how to write expressions",
		Func: func(c *ishell.Context) { c.Println(InputHelp) },
	})
	return shell
}

func solveCmd(sctx *ShellCtxt, name string, mode dispatch.Mode, help string) *ishell.Cmd {
	return &ishell.Cmd{
		Name: name,
		Help: help,
		Func: func(c *ishell.Context) {
			req, err := ParseArgs(mode, c.Args)
			if err != nil {
				c.Err(err)
				return
			}
			resp, err := sctx.solver.Solve(sctx.ctx, req)
			if err != nil {
				c.Err(err)
				return
			}
			sctx.last = resp
			c.Println(Render(resp))
		},
	}
}

func normalizeCmd() *ishell.Cmd {
	return &ishell.Cmd{
		Name: "normalize",
		Help: "show the canonical form of an expression, usage: normalize <expression>",
		Func: func(c *ishell.Context) {
			text, err := mathtext.Canonicalize(strings.Join(c.Args, " "))
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(text.String())
		},
	}
}

func listenCmd(sctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "listen",
		Help: "speak an expression, usage: listen [integrate | definite <lower> <upper> | area <lower> <upper>]",
		Func: func(c *ishell.Context) {
			if sctx.listener == nil {
				c.Err(errors.New("voice input is not configured"))
				return
			}
			mode := dispatch.Indefinite
			args := c.Args
			if len(args) > 0 {
				m, ok := commandModes[args[0]]
				if !ok {
					c.Err(fmt.Errorf("unknown mode %q", args[0]))
					return
				}
				mode, args = m, args[1:]
			}
			req, rest, err := boundArgs(mode, args)
			if err != nil {
				c.Err(err)
				return
			}
			if len(rest) > 0 {
				c.Err(errors.New("listen takes no expression"))
				return
			}

			raw, err := sctx.listener.ListenAloud(sctx.ctx, sctx.solver.Announcer, func(msg string) { c.Println(msg) })
			if err != nil {
				return
			}
			c.Println("Heard:", raw.Candidate())

			resp, err := sctx.solver.SolveRaw(sctx.ctx, raw, req)
			if err != nil {
				c.Err(err)
				return
			}
			sctx.last = resp
			c.Println(Render(resp))
		},
	}
}

func plotCmd(sctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "plot",
		Help: "write the last result as PNG, usage: plot <file.png>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("missing output file"))
				return
			}
			if sctx.last == nil {
				c.Err(errors.New("nothing solved yet"))
				return
			}
			f, err := os.Create(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			err = plot.WritePNG(f, sctx.last.Bundle(), plot.DefaultWidth, plot.DefaultHeight)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(fmt.Sprintf("wrote %s", c.Args[0]))
		},
	}
}

var commandModes = map[string]dispatch.Mode{
	"integrate": dispatch.Indefinite,
	"definite":  dispatch.DefiniteSigned,
	"area":      dispatch.DefiniteAbsoluteArea,
}

// ParseArgs turns command arguments into a request. Definite modes take the
// two bounds first; the remaining words are the expression.
func ParseArgs(mode dispatch.Mode, args []string) (integrand.Request, error) {
	req, rest, err := boundArgs(mode, args)
	if err != nil {
		return req, err
	}
	req.Expression = strings.Join(rest, " ")
	if strings.TrimSpace(req.Expression) == "" {
		return req, integrand.ErrEmptyExpression
	}
	return req, nil
}

func boundArgs(mode dispatch.Mode, args []string) (integrand.Request, []string, error) {
	req := integrand.Request{Mode: mode, Source: input.SourceTyped.String()}
	if mode == dispatch.Indefinite {
		return req, args, nil
	}
	if len(args) < 2 {
		return req, nil, errors.New("need <lower> <upper>")
	}
	b, err := dispatch.ParseBounds(args[0], args[1])
	if err != nil {
		return req, nil, err
	}
	req.Lower, req.Upper = &b.Lower, &b.Upper
	return req, args[2:], nil
}

// Render formats a response for the terminal.
func Render(resp *integrand.Response) string {
	var b strings.Builder
	fmt.Fprintf(&b, "f(x)   = %s\n", resp.Integrand)
	switch resp.Mode {
	case dispatch.Indefinite:
		fmt.Fprintf(&b, "F(x)   = %s + C\n", resp.Antiderivative)
	case dispatch.DefiniteSigned:
		fmt.Fprintf(&b, "value  = %s ≈ %g\n", resp.ValueLaTeX, *resp.Numeric)
	case dispatch.DefiniteAbsoluteArea:
		fmt.Fprintf(&b, "area   ≈ %.4f\n", *resp.Numeric)
	}
	fmt.Fprintf(&b, "LaTeX  : %s\n", resp.Display)
	b.WriteString(resp.Spoken)
	return b.String()
}
