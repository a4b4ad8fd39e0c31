// Package template turns evaluated style templates into CSS and rewrites the
// module that declared them.
package template

import (
	"errors"
	"path"
	"slices"
	"strconv"
	"strings"
	"unicode/utf16"

	"go.trai.ch/sift/internal/core/ast"
	"go.trai.ch/sift/internal/core/domain"
	"go.trai.ch/sift/internal/engine/tags"
	"golang.org/x/text/unicode/norm"
)

// Runtime helpers imported by rewritten code.
const (
	VarsHelper   = "vars"
	StyledHelper = "styled"

	varsLocal   = "_siftVars"
	styledLocal = "_siftStyled"
)

// Output is the result of processing a root module.
type Output struct {
	Code        string
	CSSText     string
	CSSFilename string
	SourceMap   string
	Rules       []domain.Rule
	Mappings    []domain.Mapping
}

// Processor renders style templates. Its Style method is the StyleFunc used
// while evaluating modules, so a template gets the same class name wherever
// it is evaluated.
type Processor struct {
	opts domain.Options
}

// New creates a Processor.
func New(opts domain.Options) *Processor {
	return &Processor{opts: opts.WithDefaults()}
}

// site locates an interpolation in the root module.
type site struct {
	line, col int
	text      string
}

type composed struct {
	raw string
	// starts holds the raw offset of every piece: quasi, expression, quasi...
	starts []int
	vars   []domain.StyleVar
}

// Style implements domain.StyleFunc.
func (p *Processor) Style(meta domain.StyleMeta, quasis []string, values []domain.Value) (domain.Value, error) {
	c, err := p.compose(meta.Filename, meta.Index, quasis, values, nil)
	if err != nil {
		return domain.Value{}, err
	}
	body, _ := collapse(c.raw)
	class := p.className(meta.Filename, meta.Name, body)
	if meta.Kind == domain.StyleKindStyled {
		return domain.StyledValue(class, meta.Name), nil
	}
	return domain.StringValue(class), nil
}

// Process renders the style templates of mod. groups holds the evaluated
// interpolations of every style template, in source order.
func (p *Processor) Process(mod *ast.Module, groups []domain.Value) (*Output, error) {
	out := &Output{Code: mod.Source, CSSFilename: p.opts.CSSFilename(mod.Filename)}
	styles := tags.Styles(mod)
	if len(styles) == 0 {
		return out, nil
	}
	if len(groups) != len(styles) {
		return nil, domain.Fail(domain.ErrEvaluation, "file", mod.Filename,
			"templates", len(styles), "values", len(groups))
	}

	var css strings.Builder
	var errs []error
	for index, tt := range styles {
		rule, mappings, err := p.rule(mod, index, tt, groups[index].Items, len(out.Rules)+1)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out.Rules = append(out.Rules, rule)
		out.Mappings = append(out.Mappings, mappings...)
		css.WriteString(rule.Selector() + " {" + rule.Body + "}\n")
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	out.CSSText = css.String()
	sourceMap, err := SourceMap(path.Base(out.CSSFilename), path.Base(mod.Filename), mod.Source, out.Mappings)
	if err != nil {
		return nil, err
	}
	out.SourceMap = sourceMap
	out.Code = p.rewrite(mod, styles, out.Rules)
	return out, nil
}

func (p *Processor) rule(mod *ast.Module, index int, tt *ast.TaggedTemplate, values []domain.Value, line int) (domain.Rule, []domain.Mapping, error) {
	tmpl := tt.Template
	quasis := make([]string, len(tmpl.Quasis))
	for i, q := range tmpl.Quasis {
		quasis[i] = q.Raw
	}
	sites := make([]site, len(tmpl.Exprs))
	for i, x := range tmpl.Exprs {
		pos := x.Pos()
		sites[i] = site{line: pos.Line, col: pos.Col, text: mod.Text(pos)}
	}
	if len(values) != len(tmpl.Exprs) {
		return domain.Rule{}, nil, domain.Fail(domain.ErrEvaluation, "file", mod.Filename,
			"line", tt.Line, "col", tt.Col, "interpolations", len(tmpl.Exprs), "values", len(values))
	}

	c, err := p.compose(mod.Filename, index, quasis, values, sites)
	if err != nil {
		return domain.Rule{}, nil, err
	}
	body, offsets := collapse(c.raw)

	rule := domain.Rule{
		ClassName: p.className(mod.Filename, tt.Binding, body),
		Kind:      domain.StyleKindCSS,
		Name:      tt.Binding,
		Element:   tt.Style.Element,
		Body:      body,
		Vars:      c.vars,
		Line:      tt.Line,
		Col:       tt.Col,
	}
	if tt.Style.Kind == ast.StyleStyled {
		rule.Kind = domain.StyleKindStyled
	}

	prefix := rule.Selector() + " {"
	mappings := []domain.Mapping{{
		GeneratedLine:  line,
		OriginalLine:   tt.Line,
		OriginalColumn: column(mod.Source, tt.Start),
	}}
	for k, start := range c.starts {
		var origin ast.Span
		if k%2 == 0 {
			origin = tmpl.Quasis[k/2].Span
		} else {
			origin = tmpl.Exprs[k/2].Pos()
		}
		col := utf16Len(prefix + body[:offsets[start]])
		if col == mappings[len(mappings)-1].GeneratedColumn {
			continue
		}
		mappings = append(mappings, domain.Mapping{
			GeneratedLine:   line,
			GeneratedColumn: col,
			OriginalLine:    origin.Line,
			OriginalColumn:  column(mod.Source, origin.Start),
		})
	}
	return rule, mappings, nil
}

func (p *Processor) compose(filename string, index int, quasis []string, values []domain.Value, sites []site) (*composed, error) {
	c := &composed{}
	var b strings.Builder
	for i, q := range quasis {
		c.starts = append(c.starts, b.Len())
		b.WriteString(norm.NFC.String(q))
		if i >= len(values) {
			break
		}
		c.starts = append(c.starts, b.Len())
		text, v, err := p.interpolate(filename, index, i, values[i], sites)
		if err != nil {
			return nil, err
		}
		b.WriteString(text)
		if v != nil {
			c.vars = append(c.vars, *v)
		}
	}
	c.raw = b.String()
	return c, nil
}

// interpolate renders one value. Dynamic values become custom properties in
// evaluate mode.
func (p *Processor) interpolate(filename string, index, i int, v domain.Value, sites []site) (string, *domain.StyleVar, error) {
	if p.opts.Evaluate && (v.Kind == domain.ValueUnresolved || v.Kind == domain.ValueFunction) {
		name := varName(filename, index, i)
		sv := &domain.StyleVar{Name: name}
		if i < len(sites) {
			sv.Expr = sites[i].text
		}
		return "var(--" + name + ")", sv, nil
	}
	text, err := v.CSSText()
	if err == nil {
		return text, nil, nil
	}
	if i < len(sites) {
		at := sites[i]
		return "", nil, domain.Fail(err, "file", filename, "line", at.line, "col", at.col, "expression", at.text)
	}
	return "", nil, domain.Fail(err, "file", filename, "template", index, "interpolation", i)
}

func (p *Processor) className(filename, name, body string) string {
	if !p.opts.DisplayName {
		return ClassName(body, "")
	}
	return ClassName(body, Slug(filename, name))
}

func varName(filename string, index, i int) string {
	prefix := hash(filename)
	if len(prefix) > 7 {
		prefix = prefix[:7]
	}
	return "v" + prefix + "-" + strconv.Itoa(index) + "-" + strconv.Itoa(i)
}

// rewrite replaces every style template with its runtime form and trims the
// style tag imports.
func (p *Processor) rewrite(mod *ast.Module, styles []*ast.TaggedTemplate, rules []domain.Rule) string {
	var edits []ast.Edit
	helpers := map[string]bool{}
	// Nested templates come later in source order, so their edits exist by
	// the time the enclosing template is rendered.
	for i := len(styles) - 1; i >= 0; i-- {
		tt, rule := styles[i], rules[i]
		text := p.replacement(mod, tt, rule, edits, helpers)
		edits = append(edits, ast.Edit{Start: tt.Start, End: tt.End, Text: text})
	}
	edits = append(edits, p.importEdits(mod, helpers)...)
	return ast.Splice(mod.Source, 0, len(mod.Source), edits)
}

func (p *Processor) replacement(mod *ast.Module, tt *ast.TaggedTemplate, rule domain.Rule, edits []ast.Edit, helpers map[string]bool) string {
	vars := ""
	if len(rule.Vars) > 0 {
		entries := make([]string, len(rule.Vars))
		for i, v := range rule.Vars {
			x := tt.Template.Exprs[exprIndex(v.Name)].Pos()
			entries[i] = strconv.Quote(v.Name) + ": " + ast.Splice(mod.Source, x.Start, x.End, edits)
		}
		vars = "{ " + strings.Join(entries, ", ") + " }"
	}

	if rule.Kind == domain.StyleKindStyled {
		helpers[StyledHelper] = true
		element := strconv.Quote(rule.Element)
		if call, ok := tt.Tag.(*ast.Call); ok && len(call.Args) == 1 {
			arg := call.Args[0].Pos()
			element = ast.Splice(mod.Source, arg.Start, arg.End, edits)
		}
		fields := []string{"class: " + strconv.Quote(rule.ClassName)}
		if rule.Name != "" {
			fields = append([]string{"name: " + strconv.Quote(rule.Name)}, fields...)
		}
		if vars != "" {
			fields = append(fields, "vars: "+vars)
		}
		return styledLocal + "(" + element + ", { " + strings.Join(fields, ", ") + " })"
	}

	if vars == "" {
		return strconv.Quote(rule.ClassName)
	}
	helpers[VarsHelper] = true
	return varsLocal + "(" + strconv.Quote(rule.ClassName) + ", " + vars + ")"
}

// exprIndex recovers the interpolation index from a variable name.
func exprIndex(name string) int {
	i, _ := strconv.Atoi(name[strings.LastIndexByte(name, '-')+1:])
	return i
}

// importEdits drops the style tag bindings from their imports and adds the
// runtime import where the first tag import was.
func (p *Processor) importEdits(mod *ast.Module, helpers map[string]bool) []ast.Edit {
	runtime := ""
	if len(helpers) > 0 {
		names := make([]string, 0, len(helpers))
		for h := range helpers {
			local := varsLocal
			if h == StyledHelper {
				local = styledLocal
			}
			names = append(names, h+" as "+local)
		}
		slices.Sort(names)
		runtime = "import { " + strings.Join(names, ", ") + " } from " + strconv.Quote(p.opts.RuntimeModule) + ";"
	}

	var edits []ast.Edit
	for _, stmt := range mod.Body {
		imp, ok := stmt.(*ast.ImportDecl)
		if !ok || imp.TypeOnly || !slices.Contains(p.opts.TagSources, imp.Source) {
			continue
		}
		text := keptImport(imp, mod.TagBindings)
		if runtime != "" {
			text = strings.TrimSuffix(runtime+"\n"+text, "\n")
			runtime = ""
		}
		end := imp.End
		if text == "" && end < len(mod.Source) && mod.Source[end] == '\n' {
			end++
		}
		edits = append(edits, ast.Edit{Start: imp.Start, End: end, Text: text})
	}
	if runtime != "" {
		edits = append(edits, ast.Edit{Start: 0, End: 0, Text: runtime + "\n"})
	}
	return edits
}

func keptImport(imp *ast.ImportDecl, tagBindings map[string]bool) string {
	var head []string
	if imp.Default != "" && !tagBindings[imp.Default] {
		head = append(head, imp.Default)
	}
	if imp.Namespace != "" {
		head = append(head, "* as "+imp.Namespace)
	}
	var named []string
	for _, spec := range imp.Named {
		if tagBindings[spec.Local] {
			continue
		}
		if spec.Imported == spec.Local {
			named = append(named, spec.Local)
		} else {
			named = append(named, spec.Imported+" as "+spec.Local)
		}
	}
	if len(named) > 0 {
		head = append(head, "{ "+strings.Join(named, ", ")+" }")
	}
	if len(head) == 0 {
		return ""
	}
	return "import " + strings.Join(head, ", ") + " from " + strconv.Quote(imp.Source) + ";"
}

// column returns the 0-based UTF-16 column of offset in src.
func column(src string, offset int) int {
	start := strings.LastIndexByte(src[:offset], '\n') + 1
	return utf16Len(src[start:offset])
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}
