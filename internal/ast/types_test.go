package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFamilyOf(t *testing.T) {
	tests := []struct {
		typ  string
		want TypeFamily
	}{
		{"INT(11)", FamilyInteger},
		{"integer", FamilyInteger},
		{"BIGINT", FamilyInteger},
		{"bigserial", FamilyInteger},
		{"VARCHAR(32)", FamilyText},
		{"character varying(32)", FamilyText},
		{"TEXT", FamilyText},
		{"DECIMAL(10, 2)", FamilyNumeric},
		{"double precision", FamilyNumeric},
		{"BOOLEAN", FamilyBoolean},
		{"timestamp without time zone", FamilyTemporal},
		{"DATETIME", FamilyTemporal},
		{"BLOB", FamilyBinary},
		{"point", FamilyText},
		{"POINT", FamilyText},
		{"INTERVAL", FamilyTemporal},
		{"UNSIGNED BIG INT", FamilyInteger},
		{"int8", FamilyInteger},
		{"smallint", FamilyInteger},
		{"MEDIUMINT(8)", FamilyInteger},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FamilyOf(tt.typ), tt.typ)
	}
}

func TestOpTypeOrder(t *testing.T) {
	order := []OpType{OpCreateTable, OpDropIndex, OpDropColumn, OpModifyColumn, OpAddColumn, OpAddIndex}
	for i := 1; i < len(order); i++ {
		assert.Less(t, order[i-1], order[i])
	}
	assert.Equal(t, "ModifyColumn", OpModifyColumn.String())
	assert.Equal(t, "Unknown", OpType(99).String())
}

func TestParseDeletePolicy(t *testing.T) {
	tests := []struct {
		in   string
		want DeletePolicy
	}{
		{"", DeleteNone},
		{"logical", DeleteLogical},
		{"Physical", DeletePhysical},
	}
	for _, tt := range tests {
		got, err := ParseDeletePolicy(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
		assert.Equal(t, tt.in != "", got.String() != "")
	}

	_, err := ParseDeletePolicy("soft")
	assert.Error(t, err)
}

func TestCheckDefault(t *testing.T) {
	tests := []struct {
		name  string
		typ   string
		value any
		ok    bool
	}{
		{"int literal", "INT(11)", 2, true},
		{"int as string", "INT(11)", "2", true},
		{"int as integral float", "INTEGER", 2.0, true},
		{"int fractional", "INTEGER", 2.5, false},
		{"int text", "INTEGER", "two", false},
		{"int bool", "INTEGER", true, false},
		{"numeric", "DECIMAL(8,2)", "1.25", true},
		{"numeric text", "REAL", "abc", false},
		{"bool", "BOOLEAN", true, true},
		{"bool string", "BOOLEAN", "false", true},
		{"bool garbage", "BOOLEAN", "maybe", false},
		{"text anything", "VARCHAR(32)", "value1", true},
		{"text number", "TEXT", 5, true},
		{"interval", "INTERVAL", "1 day", true},
		{"point", "POINT", "(1,2)", true},
		{"nil", "INTEGER", nil, true},
		{"map", "TEXT", map[string]any{"a": 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckDefault(tt.typ, tt.value)
			if tt.ok {
				assert.Nil(t, err)
			} else {
				assert.NotNil(t, err)
			}
		})
	}
}

func TestCanonicalValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
		ok   bool
	}{
		{nil, "", false},
		{"x", "x", true},
		{[]byte("b"), "b", true},
		{2, "2", true},
		{int64(-3), "-3", true},
		{uint8(7), "7", true},
		{1.5, "1.5", true},
		{true, "true", true},
	}
	for _, tt := range tests {
		got, ok := CanonicalValue(tt.in)
		assert.Equal(t, tt.ok, ok)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseTypeFamily(t *testing.T) {
	for _, f := range []TypeFamily{FamilyText, FamilyInteger, FamilyNumeric, FamilyBoolean, FamilyTemporal, FamilyBinary} {
		got, ok := ParseTypeFamily(f.String())
		assert.True(t, ok, f.String())
		assert.Equal(t, f, got)
	}

	got, ok := ParseTypeFamily(" Integer ")
	assert.True(t, ok)
	assert.Equal(t, FamilyInteger, got)

	_, ok = ParseTypeFamily("json")
	assert.False(t, ok)
}
