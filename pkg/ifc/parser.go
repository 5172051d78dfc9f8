package ifc

import (
	"context"
	"strconv"
	"strings"
)

// ValueKind is the kind of an entity attribute.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindDerived
	KindRef
	KindInt
	KindReal
	KindString
	KindEnum
	KindBinary
	KindList
	// KindTyped is a typed parameter such as IFCLENGTHMEASURE(2.5).
	KindTyped
)

// Value is one attribute of an entity instance.
type Value struct {
	Kind ValueKind
	Ref  int
	Int  int64
	Real float64
	// Str is the text of a string, the name of an enumeration without dots,
	// the hex digits of a binary or the type of a typed parameter.
	Str  string
	List []Value
}

// Float returns the value as a number. Integers, reals and typed numbers
// convert.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case KindReal:
		return v.Real, true
	case KindInt:
		return float64(v.Int), true
	case KindTyped:
		if len(v.List) == 1 {
			return v.List[0].Float()
		}
	}

	return 0, false
}

// Refs returns the instance references of a list value.
func (v Value) Refs() []int {
	if v.Kind == KindRef {
		return []int{v.Ref}
	}
	res := make([]int, 0, len(v.List))
	for _, item := range v.List {
		if item.Kind == KindRef {
			res = append(res, item.Ref)
		}
	}

	return res
}

// Entity is one instance of the DATA section: #ID=TYPE(Args).
type Entity struct {
	ID   int
	Type string
	Args []Value
}

// Arg returns attribute i, or a null value when the entity has fewer.
func (e *Entity) Arg(i int) Value {
	if e == nil || i >= len(e.Args) {
		return Value{}
	}

	return e.Args[i]
}

// File is a parsed exchange structure.
type File struct {
	Schema   string
	Name     string
	Entities map[int]*Entity
	byType   map[string][]*Entity
	order    []*Entity
}

// Get returns the entity #id, or nil.
func (f *File) Get(id int) *Entity {
	return f.Entities[id]
}

// Deref returns the entity v references, or nil.
func (f *File) Deref(v Value) *Entity {
	if v.Kind != KindRef {
		return nil
	}

	return f.Entities[v.Ref]
}

// All returns every entity in file order.
func (f *File) All() []*Entity {
	return f.order
}

// ByType returns the entities of an upper-case type in file order.
func (f *File) ByType(typ string) []*Entity {
	return f.byType[typ]
}

type parser struct {
	lex  *lexer
	tok  token
	file *File
}

// Parse reads an ISO 10303-21 exchange structure. ctx is checked between
// entities.
func Parse(ctx context.Context, src []byte) (*File, error) {
	p := &parser{
		lex: newLexer(src),
		file: &File{
			Entities: make(map[int]*Entity),
			byType:   make(map[string][]*Entity),
		},
	}
	err := p.advance()
	if err != nil {
		return nil, err
	}

	err = p.expectKeyword("ISO-10303-21")
	if err != nil {
		return nil, err
	}
	err = p.expect(tokSemicolon)
	if err != nil {
		return nil, err
	}

	err = p.header()
	if err != nil {
		return nil, err
	}

	err = p.data(ctx)
	if err != nil {
		return nil, err
	}

	return p.file, nil
}

func (p *parser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = tok

	return nil
}

func (p *parser) expect(kind tokenKind) error {
	if p.tok.kind != kind {
		return p.lex.errorf(p.tok.offset, "expected %s, got %s", kind, p.tok.kind)
	}

	return p.advance()
}

func (p *parser) isKeyword(name string) bool {
	return p.tok.kind == tokKeyword && strings.EqualFold(string(p.tok.text), name)
}

func (p *parser) expectKeyword(name string) error {
	if !p.isKeyword(name) {
		return p.lex.errorf(p.tok.offset, "expected %s", name)
	}

	return p.advance()
}

func (p *parser) header() error {
	err := p.expectKeyword("HEADER")
	if err != nil {
		return err
	}
	err = p.expect(tokSemicolon)
	if err != nil {
		return err
	}

	for !p.isKeyword("ENDSEC") {
		if p.tok.kind != tokKeyword {
			return p.lex.errorf(p.tok.offset, "expected header entity, got %s", p.tok.kind)
		}
		entity, err := p.record()
		if err != nil {
			return err
		}
		err = p.expect(tokSemicolon)
		if err != nil {
			return err
		}
		switch entity.Type {
		case "FILE_SCHEMA":
			if schemas := entity.Arg(0).List; len(schemas) > 0 {
				p.file.Schema = strings.ToUpper(schemas[0].Str)
			}
		case "FILE_NAME":
			p.file.Name = entity.Arg(0).Str
		}
	}

	err = p.advance()
	if err != nil {
		return err
	}

	return p.expect(tokSemicolon)
}

func (p *parser) data(ctx context.Context) error {
	for p.isKeyword("DATA") {
		err := p.advance()
		if err != nil {
			return err
		}
		// exchange structures with several data sections name them
		if p.tok.kind == tokLParen {
			_, err = p.list()
			if err != nil {
				return err
			}
		}
		err = p.expect(tokSemicolon)
		if err != nil {
			return err
		}

		for i := 0; !p.isKeyword("ENDSEC"); i++ {
			if i%4096 == 0 && ctx.Err() != nil {
				return ctx.Err()
			}
			err = p.instance()
			if err != nil {
				return err
			}
		}
		err = p.advance()
		if err != nil {
			return err
		}
		err = p.expect(tokSemicolon)
		if err != nil {
			return err
		}
	}

	return p.expectKeyword("END-ISO-10303-21")
}

// instance parses #id=TYPE(...); and the complex form #id=(A(...)B(...));
func (p *parser) instance() error {
	if p.tok.kind != tokRef {
		return p.lex.errorf(p.tok.offset, "expected instance name, got %s", p.tok.kind)
	}
	id, err := strconv.Atoi(string(p.tok.text[1:]))
	if err != nil {
		return p.lex.errorf(p.tok.offset, "invalid instance name %s", p.tok.text)
	}
	if _, ok := p.file.Entities[id]; ok {
		return p.lex.errorf(p.tok.offset, "duplicate instance #%d", id)
	}
	err = p.advance()
	if err != nil {
		return err
	}
	err = p.expect(tokEquals)
	if err != nil {
		return err
	}

	var entity *Entity
	if p.tok.kind == tokLParen {
		entity, err = p.complexRecord()
	} else {
		entity, err = p.record()
	}
	if err != nil {
		return err
	}
	err = p.expect(tokSemicolon)
	if err != nil {
		return err
	}

	entity.ID = id
	p.file.Entities[id] = entity
	p.file.byType[entity.Type] = append(p.file.byType[entity.Type], entity)
	p.file.order = append(p.file.order, entity)

	return nil
}

func (p *parser) record() (*Entity, error) {
	if p.tok.kind != tokKeyword {
		return nil, p.lex.errorf(p.tok.offset, "expected entity type, got %s", p.tok.kind)
	}
	typ := strings.ToUpper(string(p.tok.text))
	err := p.advance()
	if err != nil {
		return nil, err
	}
	args, err := p.list()
	if err != nil {
		return nil, err
	}

	return &Entity{Type: typ, Args: args}, nil
}

// complexRecord keeps the first partial type as the entity type and appends
// the attributes of every part.
func (p *parser) complexRecord() (*Entity, error) {
	err := p.advance()
	if err != nil {
		return nil, err
	}
	entity := &Entity{}
	for p.tok.kind != tokRParen {
		part, err := p.record()
		if err != nil {
			return nil, err
		}
		if entity.Type == "" {
			entity.Type = part.Type
		}
		entity.Args = append(entity.Args, part.Args...)
	}

	return entity, p.advance()
}

// list parses a parenthesised, comma separated list of parameters.
func (p *parser) list() ([]Value, error) {
	err := p.expect(tokLParen)
	if err != nil {
		return nil, err
	}
	values := []Value{}
	if p.tok.kind == tokRParen {
		return values, p.advance()
	}
	for {
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		switch p.tok.kind {
		case tokComma:
			err = p.advance()
			if err != nil {
				return nil, err
			}
		case tokRParen:
			return values, p.advance()
		default:
			return nil, p.lex.errorf(p.tok.offset, "expected , or ), got %s", p.tok.kind)
		}
	}
}

func (p *parser) value() (Value, error) {
	tok := p.tok
	var v Value
	switch tok.kind {
	case tokOmitted:
		v = Value{Kind: KindNull}
	case tokDerived:
		v = Value{Kind: KindDerived}
	case tokRef:
		id, err := strconv.Atoi(string(tok.text[1:]))
		if err != nil {
			return v, p.lex.errorf(tok.offset, "invalid reference %s", tok.text)
		}
		v = Value{Kind: KindRef, Ref: id}
	case tokInt:
		n, err := strconv.ParseInt(string(tok.text), 10, 64)
		if err != nil {
			return v, p.lex.errorf(tok.offset, "invalid integer %s", tok.text)
		}
		v = Value{Kind: KindInt, Int: n}
	case tokReal:
		f, err := strconv.ParseFloat(string(tok.text), 64)
		if err != nil {
			return v, p.lex.errorf(tok.offset, "invalid real %s", tok.text)
		}
		v = Value{Kind: KindReal, Real: f}
	case tokString:
		v = Value{Kind: KindString, Str: decodeString(tok.text)}
	case tokEnum:
		v = Value{Kind: KindEnum, Str: strings.ToUpper(string(tok.text[1 : len(tok.text)-1]))}
	case tokBinary:
		v = Value{Kind: KindBinary, Str: string(tok.text[1 : len(tok.text)-1])}
	case tokLParen:
		list, err := p.list()

		return Value{Kind: KindList, List: list}, err
	case tokKeyword:
		typ := strings.ToUpper(string(tok.text))
		err := p.advance()
		if err != nil {
			return v, err
		}
		args, err := p.list()

		return Value{Kind: KindTyped, Str: typ, List: args}, err
	default:
		return v, p.lex.errorf(tok.offset, "unexpected %s", tok.kind)
	}

	return v, p.advance()
}
