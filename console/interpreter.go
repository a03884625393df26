/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package console

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"github.com/google/shlex"
	"go.uber.org/zap"

	"github.com/suparena/entityfile/errors"
)

// DefaultPrompt is printed before every line read.
const DefaultPrompt = "(hbnb) "

// Console output messages.
const (
	msgClassMissing  = "** class name missing **"
	msgClassNotExist = "** class doesn't exist **"
	msgIDMissing     = "** instance id missing **"
	msgNoInstance    = "** no instance found **"
	msgAttrMissing   = "** attribute name missing **"
	msgValueMissing  = "** value missing **"
	msgDeleted       = "Instance deleted successfully"
	msgUnknownSyntax = "*** Unknown syntax: %s"
	msgNoHelp        = "*** No help on %s"
	msgPersistFailed = "** unable to save: %v **"
	msgReservedField = "Cannot update %s"
	msgUpdated       = "Updated %s %s with %s = %s"
	helpHeader       = "Documented commands (type help <topic>):"
)

// ErrCommandFailed is wrapped by the error ExecuteLine returns when the
// command printed a failure message.
var ErrCommandFailed = stderrors.New("command failed")

// callPattern matches the Class.method(args) form.
var callPattern = regexp.MustCompile(`^(\w+)\.(\w+)\((.*)\)$`)

type command struct {
	doc string
	run func(it *Interpreter, ctx context.Context, args []string) bool
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"create":  {doc: "Create a new instance: create <class>", run: (*Interpreter).doCreate},
		"show":    {doc: "Show string representation of an instance: show <class> <id>", run: (*Interpreter).doShow},
		"destroy": {doc: "Delete an instance: destroy <class> <id>", run: (*Interpreter).doDestroy},
		"all":     {doc: "Print all string representations: all [class]", run: (*Interpreter).doAll},
		"count":   {doc: "Count instances: count [class]", run: (*Interpreter).doCount},
		"update":  {doc: "Update an instance attribute: update <class> <id> <attribute> <value>", run: (*Interpreter).doUpdate},
		"help":    {doc: "List available commands with \"help\" or detailed help with \"help <command>\"", run: (*Interpreter).doHelp},
		"quit":    {doc: "Quit command to exit the program", run: (*Interpreter).doQuit},
		"EOF":     {doc: "EOF command to exit the program", run: (*Interpreter).doEOF},
	}
}

// Interpreter is the line-oriented command loop driving a Service.
type Interpreter struct {
	svc    *Service
	out    io.Writer
	prompt string
	logger *zap.Logger

	failure string
}

// InterpreterOption configures an Interpreter.
type InterpreterOption func(*Interpreter)

// WithPrompt replaces DefaultPrompt; an empty prompt prints nothing.
func WithPrompt(prompt string) InterpreterOption {
	return func(it *Interpreter) {
		it.prompt = prompt
	}
}

// WithInterpreterLogger sets the logger used for failures that are not the user's fault.
func WithInterpreterLogger(logger *zap.Logger) InterpreterOption {
	return func(it *Interpreter) {
		it.logger = logger
	}
}

// NewInterpreter creates an interpreter writing its output to out.
func NewInterpreter(svc *Service, out io.Writer, opts ...InterpreterOption) *Interpreter {
	it := &Interpreter{
		svc:    svc,
		out:    out,
		prompt: DefaultPrompt,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Run reads commands from in until quit, EOF, or ctx is cancelled.
func (it *Interpreter) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(it.out, it.prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read command: %w", err)
			}
			it.Execute(ctx, "EOF")
			return nil
		}
		if it.Execute(ctx, scanner.Text()) {
			return nil
		}
	}
}

// Execute runs a single command line and reports whether the loop should stop.
func (it *Interpreter) Execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if m := callPattern.FindStringSubmatch(line); m != nil {
		return it.dispatchCall(ctx, line, m[1], m[2], m[3])
	}

	name, rest, _ := strings.Cut(line, " ")
	cmd, ok := commands[name]
	if !ok {
		it.fail(fmt.Sprintf(msgUnknownSyntax, line))
		return false
	}
	args, err := shlex.Split(rest)
	if err != nil {
		it.fail(fmt.Sprintf(msgUnknownSyntax, line))
		return false
	}
	return cmd.run(it, ctx, args)
}

// ExecuteLine runs line like Execute. The returned error wraps
// ErrCommandFailed when the command reported a failure.
func (it *Interpreter) ExecuteLine(ctx context.Context, line string) (bool, error) {
	it.failure = ""
	stop := it.Execute(ctx, line)
	if it.failure != "" {
		return stop, fmt.Errorf("%w: %s", ErrCommandFailed, it.failure)
	}
	return stop, nil
}

// dispatchCall handles Class.all(), Class.count(), Class.show(id),
// Class.destroy(id) and Class.update(id, attr, value).
func (it *Interpreter) dispatchCall(ctx context.Context, line, class, method, rawArgs string) bool {
	if !it.svc.Registry().Types().Has(class) {
		it.fail(fmt.Sprintf(msgUnknownSyntax, line))
		return false
	}
	args, err := splitCallArgs(rawArgs)
	if err != nil {
		it.fail(fmt.Sprintf(msgUnknownSyntax, line))
		return false
	}
	args = append([]string{class}, args...)

	switch method {
	case "all":
		return it.doAll(ctx, args)
	case "count":
		return it.doCount(ctx, args)
	case "show":
		return it.doShow(ctx, args)
	case "destroy":
		return it.doDestroy(ctx, args)
	case "update":
		return it.doUpdate(ctx, args)
	default:
		it.fail(fmt.Sprintf(msgUnknownSyntax, line))
		return false
	}
}

// splitCallArgs splits a comma separated argument list. Commas inside single
// or double quotes belong to the value; each field is then unquoted.
func splitCallArgs(raw string) ([]string, error) {
	var (
		fields []string
		field  strings.Builder
		quote  rune
		escape bool
	)
	for _, r := range raw {
		switch {
		case escape:
			escape = false
		case r == '\\' && quote != '\'':
			escape = true
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ',':
			fields = append(fields, field.String())
			field.Reset()
			continue
		}
		field.WriteRune(r)
	}
	fields = append(fields, field.String())

	args := make([]string, 0, len(fields))
	for _, f := range fields {
		tokens, err := shlex.Split(f)
		if err != nil {
			return nil, err
		}
		if len(tokens) > 0 {
			args = append(args, strings.Join(tokens, " "))
		}
	}
	return args, nil
}

func (it *Interpreter) doCreate(ctx context.Context, args []string) bool {
	if len(args) == 0 {
		it.fail(msgClassMissing)
		return false
	}
	id, err := it.svc.Create(ctx, args[0])
	if err != nil {
		it.report(err)
		return false
	}
	it.println(id)
	return false
}

func (it *Interpreter) doShow(_ context.Context, args []string) bool {
	if !it.checkTarget(args) {
		return false
	}
	s, err := it.svc.Show(args[0], args[1])
	if err != nil {
		it.report(err)
		return false
	}
	it.println(s)
	return false
}

func (it *Interpreter) doDestroy(ctx context.Context, args []string) bool {
	if !it.checkTarget(args) {
		return false
	}
	if err := it.svc.Destroy(ctx, args[0], args[1]); err != nil {
		it.report(err)
		return false
	}
	it.println(msgDeleted)
	return false
}

func (it *Interpreter) doAll(_ context.Context, args []string) bool {
	kind := ""
	if len(args) > 0 {
		kind = args[0]
	}
	items, err := it.svc.List(kind)
	if err != nil {
		it.report(err)
		return false
	}
	it.println(formatList(items))
	return false
}

func (it *Interpreter) doCount(_ context.Context, args []string) bool {
	kind := ""
	if len(args) > 0 {
		kind = args[0]
	}
	n, err := it.svc.Count(kind)
	if err != nil {
		it.report(err)
		return false
	}
	it.println(fmt.Sprint(n))
	return false
}

func (it *Interpreter) doUpdate(ctx context.Context, args []string) bool {
	if !it.checkTarget(args) {
		return false
	}
	if _, err := it.svc.Show(args[0], args[1]); err != nil {
		it.report(err)
		return false
	}
	if len(args) < 3 {
		it.fail(msgAttrMissing)
		return false
	}
	if len(args) < 4 {
		it.fail(msgValueMissing)
		return false
	}

	v, err := it.svc.Update(ctx, args[0], args[1], args[2], args[3])
	if err != nil {
		if errors.IsValidationError(err) {
			it.fail(fmt.Sprintf(msgReservedField, args[2]))
			return false
		}
		it.report(err)
		return false
	}
	it.println(fmt.Sprintf(msgUpdated, args[0], args[1], args[2], v.String()))
	return false
}

func (it *Interpreter) doHelp(_ context.Context, args []string) bool {
	if len(args) > 0 {
		cmd, ok := commands[args[0]]
		if !ok {
			it.fail(fmt.Sprintf(msgNoHelp, args[0]))
			return false
		}
		it.println(cmd.doc)
		return false
	}

	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	it.println("")
	it.println(helpHeader)
	it.println(strings.Repeat("=", len(helpHeader)))
	it.println(strings.Join(names, "  "))
	it.println("")
	return false
}

func (it *Interpreter) doQuit(context.Context, []string) bool {
	return true
}

func (it *Interpreter) doEOF(context.Context, []string) bool {
	it.println("")
	return true
}

// checkTarget validates the <class> <id> prefix shared by show, destroy and update.
func (it *Interpreter) checkTarget(args []string) bool {
	if len(args) == 0 {
		it.fail(msgClassMissing)
		return false
	}
	if !it.svc.Registry().Types().Has(args[0]) {
		it.fail(msgClassNotExist)
		return false
	}
	if len(args) < 2 {
		it.fail(msgIDMissing)
		return false
	}
	return true
}

// report prints the console message for err.
func (it *Interpreter) report(err error) {
	switch {
	case errors.IsUnknownType(err):
		it.fail(msgClassNotExist)
	case errors.IsNotFound(err):
		it.fail(msgNoInstance)
	case errors.IsPersistenceFailure(err):
		it.logger.Error("command not persisted", zap.Error(err))
		it.fail(fmt.Sprintf(msgPersistFailed, err))
	default:
		it.logger.Warn("command failed", zap.Error(err))
		it.fail(fmt.Sprintf("** %v **", err))
	}
}

// fail prints msg and records it as the outcome of the current command.
func (it *Interpreter) fail(msg string) {
	it.failure = msg
	it.println(msg)
}

func (it *Interpreter) println(s string) {
	fmt.Fprintln(it.out, s)
}

// formatList renders items the way the console has always printed lists:
// ['a', 'b'] with single quotes unless an item itself contains one.
func formatList(items []string) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, item := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteItem(item))
	}
	b.WriteByte(']')
	return b.String()
}

func quoteItem(s string) string {
	quote := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		quote = `"`
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	if quote == "'" {
		s = strings.ReplaceAll(s, "'", `\'`)
	}
	return quote + s + quote
}
