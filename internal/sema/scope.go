package sema

import (
	"fmt"

	"qllc/internal/diag"
	"qllc/internal/source"
	"qllc/internal/types"
)

// Push opens a block scope.
func (c *Context) Push() {
	b := c.mustBody()
	b.scopes = append(b.scopes, make(map[string]*TypedStorage))
}

// Pop closes the innermost block scope.
func (c *Context) Pop() {
	b := c.mustBody()
	if len(b.scopes) <= 1 {
		panic(fmt.Errorf("scope stack underflow"))
	}
	b.scopes = b.scopes[:len(b.scopes)-1]
}

// Declare enters a parameter or local into the innermost scope. A name
// already declared in the same scope is reported and the earlier storage
// stays visible.
func (c *Context) Declare(name string, t types.Type, class StorageClass, loc *source.Location) *TypedStorage {
	if class != StorageParameter && class != StorageLocal {
		panic(fmt.Errorf("declare %s: %s storage is declared by its namespace", name, class))
	}
	b := c.mustBody()
	st := &TypedStorage{Name: name, Type: t, Class: class, Loc: loc}
	top := b.scopes[len(b.scopes)-1]
	if _, ok := top[name]; ok {
		c.Errorf(loc, diag.ResDuplicate, "%s is already declared in this scope", name)
		return st
	}
	top[name] = st
	return st
}

// Lookup resolves a value name: block scopes innermost first, then the
// namespace. Static storage found this way is recorded as a reference.
// Failures are reported and return nil.
func (c *Context) Lookup(name string, loc *source.Location) *TypedStorage {
	if c.body != nil {
		for i := len(c.body.scopes) - 1; i >= 0; i-- {
			if st, ok := c.body.scopes[i][name]; ok {
				return st
			}
		}
	}
	if c.namespace == nil {
		c.Errorf(loc, diag.ResUnknownIdentifier, "unknown identifier %s", name)
		return nil
	}
	st, err := c.namespace.LookupValue(name)
	switch {
	case err != nil:
		c.Errorf(loc, diag.ResAmbiguous, "%v", err)
		return nil
	case st == nil:
		c.Errorf(loc, diag.ResUnknownIdentifier, "unknown identifier %s", name)
		return nil
	}
	if st.IsStatic() {
		c.Reference(st.Qualified)
	}
	return st
}
