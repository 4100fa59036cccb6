package represent

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"
)

// Accessor is the property access contract of an execution context. Objects
// implementing it bypass reflection entirely.
type Accessor interface {
	GetProperty(name string) (any, error)
	SetProperty(name string, v any) error
}

// ResolveStructKey returns the property name a struct field answers to.
// Priority: represent:"name" > json tag name > field name; "-" hides the field.
func ResolveStructKey(sf reflect.StructField) string {
	if rt := sf.Tag.Get("represent"); rt != "" {
		if i := strings.IndexByte(rt, ','); i >= 0 {
			rt = rt[:i]
		}
		if rt != "" {
			return rt
		}
	}
	if jt := sf.Tag.Get("json"); jt != "" {
		if jt == "-" {
			return "-"
		}
		if i := strings.IndexByte(jt, ','); i >= 0 {
			jt = jt[:i]
		}
		if jt != "" {
			return jt
		}
	}
	return sf.Name
}

// fieldIndexCache maps a struct type to its property name -> field index path.
var fieldIndexCache sync.Map // reflect.Type -> map[string][]int

func fieldsOf(t reflect.Type) map[string][]int {
	if m, ok := fieldIndexCache.Load(t); ok {
		return m.(map[string][]int)
	}
	m := make(map[string][]int)
	for _, sf := range reflect.VisibleFields(t) {
		if !sf.IsExported() || sf.Anonymous {
			continue
		}
		key := ResolveStructKey(sf)
		if key == "-" {
			continue
		}
		if _, dup := m[key]; !dup {
			m[key] = sf.Index
		}
	}
	actual, _ := fieldIndexCache.LoadOrStore(t, m)
	return actual.(map[string][]int)
}

// lookupField finds the field for a property name: exact key first, then a
// case-insensitive match ignoring underscores ("first_name" ~ FirstName).
func lookupField(t reflect.Type, name string) ([]int, bool) {
	fields := fieldsOf(t)
	if idx, ok := fields[name]; ok {
		return idx, true
	}
	folded := strings.ReplaceAll(name, "_", "")
	for key, idx := range fields {
		if strings.EqualFold(strings.ReplaceAll(key, "_", ""), folded) {
			return idx, true
		}
	}
	return nil, false
}

// exportedName turns a property name into its Go method form: "first_name" -> "FirstName".
func exportedName(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '_' || r == '-' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// getProperty reads name from recv: Accessor, then a zero-arg getter method,
// then a struct field.
func getProperty(recv any, name string) (any, error) {
	if a, ok := recv.(Accessor); ok {
		return a.GetProperty(name)
	}
	if recv == nil {
		return nil, fmt.Errorf("%w: %s on nil", ErrNoAccessor, name)
	}
	rv := reflect.ValueOf(recv)
	if m := rv.MethodByName(exportedName(name)); m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() > 0 {
		return callResults(m.Call(nil))
	}
	sv := reflect.Indirect(rv)
	if sv.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s on %T", ErrNoAccessor, name, recv)
	}
	idx, ok := lookupField(sv.Type(), name)
	if !ok {
		return nil, fmt.Errorf("%w: %s on %T", ErrNoAccessor, name, recv)
	}
	fv, err := sv.FieldByIndexErr(idx)
	if err != nil {
		// nil embedded pointer on the path
		return nil, nil
	}
	return valueOf(fv), nil
}

// setProperty writes v into name on recv: Accessor, then a Set<Name> method,
// then an addressable struct field.
func setProperty(recv any, name string, v any) error {
	if a, ok := recv.(Accessor); ok {
		return a.SetProperty(name, v)
	}
	if recv == nil {
		return fmt.Errorf("%w: %s on nil", ErrNoAccessor, name)
	}
	rv := reflect.ValueOf(recv)
	if m := rv.MethodByName("Set" + exportedName(name)); m.IsValid() && m.Type().NumIn() == 1 {
		arg := reflect.New(m.Type().In(0)).Elem()
		if err := assign(arg, v); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		_, err := callResults(m.Call([]reflect.Value{arg}))
		return err
	}
	if rv.Kind() != reflect.Pointer || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s on %T (need non-nil struct pointer)", ErrNoAccessor, name, recv)
	}
	sv := rv.Elem()
	idx, ok := lookupField(sv.Type(), name)
	if !ok {
		return fmt.Errorf("%w: %s on %T", ErrNoAccessor, name, recv)
	}
	fv, err := sv.FieldByIndexErr(idx)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoAccessor, name, err)
	}
	if err := assign(fv, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// valueOf returns rv as an interface, folding nil pointers, slices, maps and
// interfaces to an untyped nil so emptiness checks see them as absent.
func valueOf(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			return nil
		}
	}
	return rv.Interface()
}

// isNil reports untyped nil as well as typed nil pointers, slices and maps.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// assign stores v into dst converting document shapes (List, Object, []any,
// map[string]any, numeric kinds) into the field's Go type.
func assign(dst reflect.Value, v any) error {
	if isNil(v) {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	sv := reflect.ValueOf(v)
	dt := dst.Type()
	if sv.Type().AssignableTo(dt) {
		dst.Set(sv)
		return nil
	}
	switch dt.Kind() {
	case reflect.Pointer:
		if sv.Kind() == reflect.Pointer && sv.Type().Elem().AssignableTo(dt.Elem()) {
			p := reflect.New(dt.Elem())
			p.Elem().Set(sv.Elem())
			dst.Set(p)
			return nil
		}
		p := reflect.New(dt.Elem())
		if err := assign(p.Elem(), v); err != nil {
			return err
		}
		dst.Set(p)
		return nil
	case reflect.Slice:
		items, ok := listItems(v)
		if !ok {
			break
		}
		out := reflect.MakeSlice(dt, len(items), len(items))
		for i, it := range items {
			if err := assign(out.Index(i), nativeIn(dt.Elem(), it)); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		if dt.Key().Kind() != reflect.String {
			break
		}
		pairs, ok := objectPairs(v)
		if !ok {
			break
		}
		out := reflect.MakeMapWithSize(dt, len(pairs))
		for _, p := range pairs {
			ev := reflect.New(dt.Elem()).Elem()
			if err := assign(ev, nativeIn(dt.Elem(), p.Value)); err != nil {
				return fmt.Errorf("[%q]: %w", p.Key, err)
			}
			out.SetMapIndex(reflect.ValueOf(p.Key).Convert(dt.Key()), ev)
		}
		dst.Set(out)
		return nil
	case reflect.Interface:
		if sv.Type().Implements(dt) {
			dst.Set(sv)
			return nil
		}
	}
	if sv.Kind() == reflect.Pointer && !sv.IsNil() && sv.Elem().Type().AssignableTo(dt) {
		dst.Set(sv.Elem())
		return nil
	}
	if convertible(sv.Type(), dt) {
		dst.Set(sv.Convert(dt))
		return nil
	}
	return fmt.Errorf("%w: %T into %s", ErrTypeMismatch, v, dt)
}

// nativeIn flattens document containers that land in an interface-typed
// element of a Go slice or map. A plain interface field keeps the ordered
// document as is.
func nativeIn(elem reflect.Type, v any) any {
	if elem.Kind() != reflect.Interface {
		return v
	}
	switch v.(type) {
	case *Object, *List:
		return ToNative(v)
	}
	return v
}

// convertible limits reflect conversions to same-family kinds so that, say,
// an int never silently becomes a string.
func convertible(from, to reflect.Type) bool {
	if !from.ConvertibleTo(to) {
		return false
	}
	fk, tk := from.Kind(), to.Kind()
	switch {
	case isNumberKind(fk) && isNumberKind(tk):
		return true
	case fk == reflect.String && tk == reflect.String:
		return true
	case fk == reflect.Bool && tk == reflect.Bool:
		return true
	}
	return false
}

func isNumberKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
