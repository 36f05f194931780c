package walker

import (
	"testing"

	"github.com/ludo-technologies/jsgraph/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const symbolFixture = `
import { used, unused } from './dep';
const a = used();
let b;
function helper(p1, p2) { return a; }
class Service {
  private cache = new Map();
  #secret = 1;
  public run() { return this.cache; }
  constructor() {}
}
enum Color { Red = 'r', Green }
export const out = Color.Red;
`

func lookup(t *testing.T, m *domain.Module, name string) *domain.Symbol {
	t.Helper()
	s, ok := m.SymbolTable.Lookup(name)
	require.True(t, ok, "symbol %s not found", name)
	return s
}

func TestSymbols_TopLevel(t *testing.T) {
	m := analyze(t, "/proj/src/symbols.ts", symbolFixture)

	tests := []struct {
		name   string
		kind   domain.SymbolKind
		unused bool
	}{
		{"used", domain.SymbolImport, false},
		{"unused", domain.SymbolImport, true},
		{"a", domain.SymbolVariable, false},
		{"b", domain.SymbolVariable, true},
		{"helper", domain.SymbolFunction, true},
		{"Service", domain.SymbolClass, true},
		{"Color", domain.SymbolEnum, false},
		{"out", domain.SymbolVariable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := lookup(t, m, tt.name)
			assert.Equal(t, tt.kind, s.Kind)
			assert.Equal(t, tt.unused, s.IsUnused())
		})
	}

	assert.True(t, lookup(t, m, "out").IsExported)
	assert.Equal(t, 1, lookup(t, m, "a").WriteCount)

	helper := lookup(t, m, "helper")
	require.NotNil(t, helper.Metadata.CodeQuality)
	assert.Equal(t, 2, *helper.Metadata.CodeQuality.ParameterCount)
	assert.Equal(t, 1, *helper.Metadata.CodeQuality.ReturnCount)
	assert.Equal(t, uint32(5), helper.DeclarationSpan.Line)
}

func TestSymbols_ClassMembers(t *testing.T) {
	m := analyze(t, "/proj/src/symbols.ts", symbolFixture)

	cache := lookup(t, m, "cache")
	assert.Equal(t, domain.SymbolClassProperty, cache.Kind)
	assert.Equal(t, domain.VisibilityPrivate, cache.Metadata.ClassMember.Visibility)
	assert.Equal(t, "Service", cache.Metadata.ClassMember.ClassName)
	assert.Equal(t, 1, cache.ReadCount)
	assert.False(t, cache.IsUnusedPrivateMember())

	secret := lookup(t, m, "#secret")
	assert.Equal(t, domain.VisibilityPrivate, secret.Metadata.ClassMember.Visibility)
	assert.True(t, secret.IsUnusedPrivateMember())

	run := lookup(t, m, "run")
	assert.Equal(t, domain.SymbolClassMethod, run.Kind)
	assert.Equal(t, domain.VisibilityPublic, run.Metadata.ClassMember.Visibility)

	ctor := lookup(t, m, "constructor")
	assert.Equal(t, domain.SymbolClassConstructor, ctor.Kind)

	class := lookup(t, m, "Service")
	require.NotNil(t, class.Metadata.CodeQuality)
	assert.Equal(t, 2, *class.Metadata.CodeQuality.MethodCount)
	assert.Equal(t, 2, *class.Metadata.CodeQuality.FieldCount)
	assert.NotEqual(t, class.ScopeID, cache.ScopeID)
}

func TestSymbols_EnumMembers(t *testing.T) {
	m := analyze(t, "/proj/src/symbols.ts", symbolFixture)

	red := lookup(t, m, "Red")
	assert.Equal(t, domain.SymbolEnumMember, red.Kind)
	assert.Equal(t, "Color", red.Metadata.EnumMember.EnumName)
	assert.Equal(t, "'r'", red.Metadata.EnumMember.Value)
	assert.False(t, red.IsUnusedEnumMember())

	green := lookup(t, m, "Green")
	assert.Empty(t, green.Metadata.EnumMember.Value)
	assert.True(t, green.IsUnusedEnumMember())
}

func TestSymbols_Reassignment(t *testing.T) {
	m := analyze(t, "/proj/counter.js", `
let count = 0;
count = 1;
count += 2;
`)

	count := lookup(t, m, "count")
	assert.Equal(t, 0, count.ReadCount)
	assert.Equal(t, 3, count.WriteCount)
	assert.False(t, count.IsUnused())
}
