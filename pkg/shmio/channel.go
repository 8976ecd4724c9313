package shmio

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"
	"unsafe"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kuravih/shmio/internal/pshared"
	"github.com/kuravih/shmio/internal/shm"
)

// DefaultNamespaceDir is where segments live when no namespace is given.
const DefaultNamespaceDir = "/dev/shm"

// Namespace is the directory that holds a family of segment files. The
// zero value means /dev/shm. Non-tmpfs directories work too and are the
// normal choice in tests.
type Namespace struct {
	dir string
}

// NamespaceAt returns the namespace rooted at dir.
func NamespaceAt(dir string) Namespace { return Namespace{dir: dir} }

// Dir returns the namespace directory.
func (ns Namespace) Dir() string {
	if ns.dir == "" {
		return DefaultNamespaceDir
	}
	return ns.dir
}

// Path returns the backing file path a segment name maps to.
func (ns Namespace) Path(name string) string {
	return shm.PathFor(ns.Dir(), name)
}

// Unlink removes a segment file from the namespace. Channels still mapped
// keep working until released; new attaches fail with ErrNotExist. This is
// an administrative operation, not part of the normal exchange lifecycle.
func (ns Namespace) Unlink(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	err := shm.Unlink(ns.Path(name))
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %q", ErrNotExist, name)
	}
	return err
}

// Options carries the optional wiring for a channel. The zero value (and a
// nil pointer) selects the default namespace with no instrumentation.
type Options struct {
	// Namespace selects the directory holding segment files.
	Namespace Namespace

	// Metrics, when set, counts channel operations on its Prometheus
	// instruments. One Metrics value may be shared by many channels.
	Metrics *Metrics

	// Meter, when set, adds OpenTelemetry counters for frames requested
	// and served on this channel.
	Meter metric.Meter

	// Tracer is not used by the channel itself; it rides along for
	// layers such as pkg/dispatch that span per-frame work.
	Tracer trace.Tracer
}

func (o *Options) clone() Options {
	if o == nil {
		return Options{}
	}
	return *o
}

// Channel is one mapped handle on a named segment. Handles are independent
// per process: each holds its own file descriptor and mapping over the same
// physical pages.
//
// A Channel is safe for concurrent use by multiple goroutines, except that
// Release must not run concurrently with other methods.
type Channel struct {
	name    string
	ns      Namespace
	region  *shm.Region
	hdr     *header
	mu      pshared.Mutex
	reqCond pshared.Cond
	rdyCond pshared.Cond

	metrics       *Metrics
	tracer        trace.Tracer
	otelRequested metric.Int64Counter
	otelServed    metric.Int64Counter

	released atomic.Bool
}

func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	case strings.ContainsAny(name, "/\x00"):
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case len(name) > 240:
		return fmt.Errorf("%w: %q is too long", ErrInvalidName, name)
	}
	return nil
}

// Exists reports whether a segment with the given name is present. The
// answer is advisory: another process can create or unlink the segment
// right after the probe returns.
func Exists(name string, opts *Options) bool {
	if validateName(name) != nil {
		return false
	}
	o := opts.clone()
	return shm.Exists(o.Namespace.Path(name))
}

// CreateOrAttach opens the channel named name, creating its segment when
// none exists yet. The caller states the full shape: elementCount elements
// of type dt plus the keyword table.
//
// On create, the segment is sized exactly, zero-filled, stamped with the
// keyword table and published. On attach, the existing segment must match
// the stated shape byte for byte and the existing keyword table must match
// in every name, comment and value type; the caller's keyword values then
// overwrite the stored values. A mismatch fails with ErrShapeMismatch or
// ErrSchemaMismatch and leaves the segment untouched.
//
// Both sides of an exchange normally use CreateOrAttach so process start
// order does not matter.
func CreateOrAttach(name string, elementCount int, dt DataType, keywords []Keyword, opts *Options) (*Channel, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if !dt.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataType, dt)
	}
	if elementCount < 0 {
		return nil, fmt.Errorf("shmio: negative element count %d", elementCount)
	}
	o := opts.clone()
	path := o.Namespace.Path(name)
	if !shm.Exists(path) {
		ch, err := create(o, name, path, elementCount, dt, keywords)
		if err == nil || !errors.Is(err, os.ErrExist) {
			return ch, err
		}
		// Lost a create race; the winner's segment is attachable below.
	}
	return attachShaped(o, name, path, elementCount, dt, keywords)
}

// Attach opens an existing channel, taking the shape and keyword table as
// stored. It fails with ErrNotExist when no segment is present and never
// modifies the segment beyond the access timestamp.
func Attach(name string, opts *Options) (*Channel, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	o := opts.clone()
	path := o.Namespace.Path(name)
	region, err := shm.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotExist, name)
		}
		return nil, err
	}
	if region.Size() < int64(headerSize) {
		_ = region.Close()
		return nil, fmt.Errorf("%w: %q holds %d bytes, smaller than a header", ErrBadSegment, name, region.Size())
	}
	if err := region.Map(); err != nil {
		_ = region.Close()
		return nil, err
	}
	hdr := headerAt(region.Bytes())
	if err := hdr.validate(); err != nil {
		_ = region.Close()
		return nil, err
	}
	// The stored layout drives every pointer this handle will ever form,
	// so it must account for the mapped size exactly.
	stored, ok := hdr.storedSize()
	if !ok || stored != uint64(region.Size()) {
		_ = region.Close()
		return nil, fmt.Errorf("%w: %q stores a %d byte layout in a %d byte file", ErrBadSegment, name, stored, region.Size())
	}
	hdr.touch()
	ch := newChannel(o, name, region, hdr)
	ch.metrics.incAttaches()
	logr.debugf("attached segment %s: %d keywords, %d x %s", path, ch.KeywordCount(), ch.ElementCount(), ch.DataType())
	return ch, nil
}

func create(o Options, name, path string, elementCount int, dt DataType, keywords []Keyword) (*Channel, error) {
	size := SegmentSize(len(keywords), elementCount, dt)
	region, err := shm.Create(path, int64(size))
	if err != nil {
		return nil, err
	}
	if err := region.Map(); err != nil {
		_ = region.Close()
		return nil, err
	}
	mem := region.Bytes()
	hdr := headerAt(mem)
	hdr.version = headerVersion
	hdr.keywordCount = uint64(len(keywords))
	hdr.elementCount = uint64(elementCount)
	hdr.dataType = uint32(dt)
	hdr.restamp()
	recs := keywordRecords(mem, len(keywords))
	for i := range keywords {
		keywords[i].encode(&recs[i])
	}
	// Publish last: any process that observes the magic observes the
	// finished layout.
	atomic.StoreUint32(&hdr.magic, headerMagic)
	ch := newChannel(o, name, region, hdr)
	ch.metrics.incCreates()
	logr.debugf("created segment %s: %d keywords, %d x %s, %d bytes", path, len(keywords), elementCount, dt, size)
	return ch, nil
}

func attachShaped(o Options, name, path string, elementCount int, dt DataType, keywords []Keyword) (*Channel, error) {
	region, err := shm.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", ErrNotExist, name)
		}
		return nil, err
	}
	want := int64(SegmentSize(len(keywords), elementCount, dt))
	if region.Size() != want {
		have := region.Size()
		_ = region.Close()
		return nil, fmt.Errorf("%w: %q holds %d bytes, shape needs %d", ErrShapeMismatch, name, have, want)
	}
	if err := region.Map(); err != nil {
		_ = region.Close()
		return nil, err
	}
	hdr := headerAt(region.Bytes())
	if err := hdr.validate(); err != nil {
		_ = region.Close()
		return nil, err
	}
	// Equal sizes can still hide a different shape, for example the same
	// element total split across another type width.
	if hdr.keywordCount != uint64(len(keywords)) ||
		hdr.elementCount != uint64(elementCount) ||
		hdr.dataType != uint32(dt) {
		got := fmt.Sprintf("%d keywords, %d x %s", hdr.keywordCount, hdr.elementCount, DataType(hdr.dataType))
		_ = region.Close()
		return nil, fmt.Errorf("%w: %q stores %s, caller wants %d keywords, %d x %s",
			ErrShapeMismatch, name, got, len(keywords), elementCount, dt)
	}
	if err := reconcile(region.Bytes(), keywords); err != nil {
		_ = region.Close()
		return nil, err
	}
	hdr.touch()
	ch := newChannel(o, name, region, hdr)
	ch.metrics.incAttaches()
	logr.debugf("attached segment %s with matching schema", path)
	return ch, nil
}

// reconcile checks the caller's keyword table against the stored one and,
// only when every position matches, overwrites the stored values with the
// caller's. A failed reconcile leaves the segment byte-identical.
func reconcile(mem []byte, expected []Keyword) error {
	recs := keywordRecords(mem, len(expected))
	encoded := make([]keywordRecord, len(expected))
	for i := range expected {
		expected[i].encode(&encoded[i])
	}
	for i := range encoded {
		want, got := &encoded[i], &recs[i]
		switch {
		case want.name != got.name:
			return &SchemaError{Index: i, Field: "name", Want: cString(want.name[:]), Got: cString(got.name[:])}
		case want.comment != got.comment:
			return &SchemaError{Index: i, Field: "comment", Want: cString(want.comment[:]), Got: cString(got.comment[:])}
		case want.kind != got.kind:
			return &SchemaError{Index: i, Field: "type", Want: KeywordKind(want.kind).String(), Got: KeywordKind(got.kind).String()}
		}
	}
	for i := range encoded {
		writeValue(&recs[i], &encoded[i])
	}
	return nil
}

// writeValue stores src's value bytes into the live record dst. Numeric
// values go through one atomic store so a concurrent reader never sees a
// torn number. String values are copied as a plain 8-byte array.
func writeValue(dst, src *keywordRecord) {
	switch KeywordKind(src.kind) {
	case KindInt64, KindFloat64:
		atomic.StoreUint64((*uint64)(unsafe.Pointer(&dst.value[0])),
			*(*uint64)(unsafe.Pointer(&src.value[0])))
	default:
		dst.value = src.value
	}
}

func newChannel(o Options, name string, region *shm.Region, hdr *header) *Channel {
	c := &Channel{
		name:    name,
		ns:      o.Namespace,
		region:  region,
		hdr:     hdr,
		mu:      pshared.MutexAt(&hdr.mutex),
		reqCond: pshared.CondAt(&hdr.requestSeq),
		rdyCond: pshared.CondAt(&hdr.readySeq),
		metrics: o.Metrics,
		tracer:  o.Tracer,
	}
	c.initInstruments(o.Meter)
	return c
}

func (c *Channel) initInstruments(meter metric.Meter) {
	if meter == nil {
		return
	}
	var err error
	if c.otelRequested, err = meter.Int64Counter("shmio.frames.requested"); err != nil {
		logr.warnf("meter counter shmio.frames.requested: %v", err)
	}
	if c.otelServed, err = meter.Int64Counter("shmio.frames.served"); err != nil {
		logr.warnf("meter counter shmio.frames.served: %v", err)
	}
}

// Release drops this handle's mapping and file descriptor. The segment
// itself stays alive for other handles and future attaches. All further
// operations on the channel fail with ErrReleased; releasing twice reports
// ErrReleased as well.
func (c *Channel) Release() error {
	if !c.released.CompareAndSwap(false, true) {
		return ErrReleased
	}
	if err := c.region.Close(); err != nil {
		logr.warnf("release segment %s: %v", c.name, err)
		return err
	}
	c.metrics.incReleases()
	logr.debugf("released segment %s", c.region.Path())
	return nil
}

// Name returns the channel name, without namespace directory or suffix.
func (c *Channel) Name() string { return c.name }

// Namespace returns the namespace this channel was opened in.
func (c *Channel) Namespace() Namespace { return c.ns }

// Path returns the segment's backing file path.
func (c *Channel) Path() string { return c.region.Path() }

// Tracer returns the tracer supplied in Options, or nil. The channel
// itself opens no spans; per-frame layers pick it up from here.
func (c *Channel) Tracer() trace.Tracer { return c.tracer }

// Size returns the total segment size in bytes, or 0 after Release.
func (c *Channel) Size() int {
	if c.released.Load() {
		return 0
	}
	return int(c.region.Size())
}

// ElementCount returns the buffer length in elements, or 0 after Release.
func (c *Channel) ElementCount() int {
	if c.released.Load() {
		return 0
	}
	return int(c.hdr.elementCount)
}

// DataType returns the buffer element type, or Uninitialized after Release.
func (c *Channel) DataType() DataType {
	if c.released.Load() {
		return Uninitialized
	}
	return DataType(c.hdr.dataType)
}

// KeywordCount returns the number of keyword slots, or 0 after Release.
func (c *Channel) KeywordCount() int {
	if c.released.Load() {
		return 0
	}
	return int(c.hdr.keywordCount)
}

// CreatedAt returns the segment creation time, or the zero time after
// Release.
func (c *Channel) CreatedAt() time.Time {
	if c.released.Load() {
		return time.Time{}
	}
	return c.hdr.created()
}

// LastAccessAt returns the time the segment was last attached, touched or
// cycled through a frame exchange, or the zero time after Release.
func (c *Channel) LastAccessAt() time.Time {
	if c.released.Load() {
		return time.Time{}
	}
	return c.hdr.accessed()
}

// Touch records the current time as the segment's last access.
func (c *Channel) Touch() {
	if !c.released.Load() {
		c.hdr.touch()
	}
}

// ResetCreatedAt restamps both segment timestamps to now. Producers use
// this to mark the start of a new acquisition run in a reused segment.
func (c *Channel) ResetCreatedAt() {
	if !c.released.Load() {
		c.hdr.restamp()
	}
}

// Keywords returns a decoded copy of the keyword table in stored order.
func (c *Channel) Keywords() []Keyword {
	if c.released.Load() {
		return nil
	}
	recs := keywordRecords(c.region.Bytes(), c.KeywordCount())
	out := make([]Keyword, len(recs))
	for i := range recs {
		out[i] = recs[i].decode()
	}
	return out
}

// FindKeyword returns the keyword with the given name. The name is
// compared in its stored, truncated form. With duplicate names the first
// slot wins.
func (c *Channel) FindKeyword(name string) (Keyword, bool) {
	rec := c.findRecord(name)
	if rec == nil {
		return Keyword{}, false
	}
	return rec.decode(), true
}

// SetKeywordInt64 stores v into the named int64 keyword slot.
func (c *Channel) SetKeywordInt64(name string, v int64) error {
	return c.setKeyword(name, KindInt64, Keyword{Kind: KindInt64, Int: v})
}

// SetKeywordFloat64 stores v into the named float64 keyword slot.
func (c *Channel) SetKeywordFloat64(name string, v float64) error {
	return c.setKeyword(name, KindFloat64, Keyword{Kind: KindFloat64, Float: v})
}

// SetKeywordString stores v, truncated to the slot width, into the named
// string keyword slot.
func (c *Channel) SetKeywordString(name, v string) error {
	return c.setKeyword(name, KindString, Keyword{Kind: KindString, Str: v})
}

func (c *Channel) setKeyword(name string, kind KeywordKind, kw Keyword) error {
	if c.released.Load() {
		return ErrReleased
	}
	rec := c.findRecord(name)
	if rec == nil {
		return fmt.Errorf("%w: %q", ErrKeywordNotFound, name)
	}
	if KeywordKind(rec.kind) != kind {
		return fmt.Errorf("%w: %q stores %s, not %s", ErrKeywordType, name, KeywordKind(rec.kind), kind)
	}
	var enc keywordRecord
	kw.encode(&enc)
	writeValue(rec, &enc)
	return nil
}

func (c *Channel) findRecord(name string) *keywordRecord {
	if c.released.Load() {
		return nil
	}
	var query [KeywordNameLen]byte
	copyBounded(query[:], name)
	recs := keywordRecords(c.region.Bytes(), c.KeywordCount())
	for i := range recs {
		if recs[i].name == query {
			return &recs[i]
		}
	}
	return nil
}
