package asm

import (
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"qllc/internal/isa"
)

// Current schema version - increment when the record format changes
const streamSchemaVersion uint16 = 1

const (
	recordLabel       = "label"
	recordData        = "data"
	recordInstruction = "instruction"
	recordConstant    = "constant"
)

// streamHeader opens every encoded stream.
type streamHeader struct {
	Schema uint16 `msgpack:"schema"`
	Count  int    `msgpack:"count"`
}

type streamValue struct {
	Kind string `msgpack:"k"`
	Word uint32 `msgpack:"w,omitempty"`
	Text string `msgpack:"t,omitempty"`
}

type streamRecord struct {
	Kind   string        `msgpack:"k"`
	Name   string        `msgpack:"n,omitempty"`
	Op     string        `msgpack:"op,omitempty"`
	Regs   []uint8       `msgpack:"r,omitempty"`
	Values []streamValue `msgpack:"v,omitempty"`
}

// Encode writes the directives as a msgpack stream: a header followed by one
// record per directive.
func Encode(w io.Writer, ds []Directive) error {
	enc := msgpack.NewEncoder(w)
	if err := enc.Encode(streamHeader{Schema: streamSchemaVersion, Count: len(ds)}); err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	for i, d := range ds {
		rec, err := toRecord(d)
		if err != nil {
			return fmt.Errorf("directive %d: %w", i, err)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode directive %d: %w", i, err)
		}
	}
	return nil
}

// Decode reads a stream produced by Encode.
func Decode(r io.Reader) ([]Directive, error) {
	dec := msgpack.NewDecoder(r)
	var hdr streamHeader
	if err := dec.Decode(&hdr); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if hdr.Schema != streamSchemaVersion {
		return nil, fmt.Errorf("unsupported stream schema %d", hdr.Schema)
	}
	out := make([]Directive, 0, hdr.Count)
	for i := range hdr.Count {
		var rec streamRecord
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("stream truncated after %d of %d directives", i, hdr.Count)
			}
			return nil, fmt.Errorf("decode directive %d: %w", i, err)
		}
		d, err := fromRecord(rec)
		if err != nil {
			return nil, fmt.Errorf("directive %d: %w", i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func toRecord(d Directive) (streamRecord, error) {
	switch d := d.(type) {
	case *Label:
		return streamRecord{Kind: recordLabel, Name: d.Name}, nil
	case *Data:
		rec := streamRecord{Kind: recordData, Values: make([]streamValue, 0, len(d.Values))}
		for _, v := range d.Values {
			rec.Values = append(rec.Values, toValue(v))
		}
		return rec, nil
	case *Instruction:
		return streamRecord{
			Kind: recordInstruction,
			Op:   d.Op.String(),
			Regs: []uint8{uint8(d.D), uint8(d.S0), uint8(d.S1)}[:d.Op.Operands()],
		}, nil
	case *Constant:
		return streamRecord{
			Kind:   recordConstant,
			Regs:   []uint8{uint8(d.D)},
			Values: []streamValue{toValue(d.Value)},
		}, nil
	}
	return streamRecord{}, fmt.Errorf("unknown directive %T", d)
}

func toValue(v Value) streamValue {
	switch v := v.(type) {
	case Immediate:
		return streamValue{Kind: "imm", Word: uint32(v)}
	case Text:
		return streamValue{Kind: "text", Text: string(v)}
	case Reference:
		return streamValue{Kind: "ref", Text: string(v)}
	}
	panic(fmt.Errorf("unknown value %T", v))
}

func fromValue(v streamValue) (Value, error) {
	switch v.Kind {
	case "imm":
		return Immediate(v.Word), nil
	case "text":
		return Text(v.Text), nil
	case "ref":
		return Reference(v.Text), nil
	}
	return nil, fmt.Errorf("unknown value kind %q", v.Kind)
}

func fromRecord(rec streamRecord) (Directive, error) {
	switch rec.Kind {
	case recordLabel:
		return &Label{Name: rec.Name}, nil
	case recordData:
		d := &Data{Values: make([]Value, 0, len(rec.Values))}
		for _, sv := range rec.Values {
			v, err := fromValue(sv)
			if err != nil {
				return nil, err
			}
			d.Values = append(d.Values, v)
		}
		return d, nil
	case recordInstruction:
		op, err := isa.ParseOpcode(rec.Op)
		if err != nil {
			return nil, err
		}
		if len(rec.Regs) != op.Operands() {
			return nil, fmt.Errorf("%s takes %d operands, got %d", op, op.Operands(), len(rec.Regs))
		}
		ins := &Instruction{Op: op}
		regs := []*isa.Register{&ins.D, &ins.S0, &ins.S1}
		for i, r := range rec.Regs {
			if int(r) >= isa.RegisterCount {
				return nil, fmt.Errorf("register %d out of range", r)
			}
			*regs[i] = isa.Register(r)
		}
		return ins, nil
	case recordConstant:
		if len(rec.Regs) != 1 || len(rec.Values) != 1 {
			return nil, errors.New("malformed constant")
		}
		v, err := fromValue(rec.Values[0])
		if err != nil {
			return nil, err
		}
		if _, ok := v.(Text); ok {
			return nil, errors.New("constant cannot hold text")
		}
		return &Constant{D: isa.Register(rec.Regs[0]), Value: v}, nil
	}
	return nil, fmt.Errorf("unknown directive kind %q", rec.Kind)
}
