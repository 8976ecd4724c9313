/*
 * Copyright 2026 Shmio Authors
 * Copyright 2023 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package shmio

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
	"unsafe"

	"github.com/valyala/bytebufferpool"
)

type logger struct {
	name      string
	out       io.Writer
	callDepth int
}

var (
	logr  = &logger{"", os.Stdout, 3}
	level int

	magenta = string([]byte{27, 91, 57, 53, 109}) // Trace
	green   = string([]byte{27, 91, 57, 50, 109}) // Debug
	blue    = string([]byte{27, 91, 57, 52, 109}) // Info
	yellow  = string([]byte{27, 91, 57, 51, 109}) // Warn
	red     = string([]byte{27, 91, 57, 49, 109}) // Error
	reset   = string([]byte{27, 91, 48, 109})

	colors = []string{
		magenta,
		green,
		blue,
		yellow,
		red,
	}

	levelName = []string{
		"Trace",
		"Debug",
		"Info",
		"Warn",
		"Error",
	}
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
	levelNoPrint
)

func init() {
	level = levelWarn
	if os.Getenv("SHMIO_LOG_LEVEL") != "" {
		if n, err := strconv.Atoi(os.Getenv("SHMIO_LOG_LEVEL")); err == nil {
			if n <= levelNoPrint {
				level = n
			}
		}
	}
}

// SetLogLevel used to change the internal logger's level and the default level is Warning.
// The process env `SHMIO_LOG_LEVEL` also could set log level
func SetLogLevel(l int) {
	if l <= levelNoPrint {
		level = l
	}
}

func (l *logger) errorf(format string, a ...interface{}) {
	if level > levelError {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelError)+format+reset+"\n", a...)
}

func (l *logger) warnf(format string, a ...interface{}) {
	if level > levelWarn {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelWarn)+format+reset+"\n", a...)
}

func (l *logger) infof(format string, a ...interface{}) {
	if level > levelInfo {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelInfo)+format+reset+"\n", a...)
}

func (l *logger) debugf(format string, a ...interface{}) {
	if level > levelDebug {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelDebug)+format+reset+"\n", a...)
}

func (l *logger) tracef(format string, a ...interface{}) {
	if level > levelTrace {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelTrace)+format+reset+"\n", a...)
}

func (l *logger) prefix(level int) string {
	var buffer [64]byte
	buf := bytes.NewBuffer(buffer[:0])
	_, _ = buf.WriteString(colors[level])
	_, _ = buf.WriteString(levelName[level])
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(time.Now().Format("2006-01-02 15:04:05.999999"))
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.location())
	_ = buf.WriteByte(' ')
	_, _ = buf.WriteString(l.name)
	_ = buf.WriteByte(' ')
	return buf.String()
}

func (l *logger) location() string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file = "???"
		line = 0
	}
	file = filepath.Base(file)
	return file + ":" + strconv.Itoa(line)
}

// DebugString renders the channel's header, flags and keyword table for
// humans. It reads live shared state without taking the segment lock.
func (c *Channel) DebugString() string {
	if c.released.Load() {
		return fmt.Sprintf("channel %s: released", c.name)
	}
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	fmt.Fprintf(buf, "segment %s: %d keywords, %d x %s, %d bytes\n",
		c.Path(), c.KeywordCount(), c.ElementCount(), c.DataType(), c.Size())
	fmt.Fprintf(buf, "created %s  accessed %s\n",
		c.CreatedAt().Format(time.RFC3339Nano), c.LastAccessAt().Format(time.RFC3339Nano))
	fmt.Fprintf(buf, "flags: request=%v ready=%v\n", c.hdr.requestSet(), c.hdr.readySet())
	for i, kw := range c.Keywords() {
		fmt.Fprintf(buf, "keyword %d: %s %s %s %q\n", i, kw.Name, kw.Kind, kw.ValueString(), kw.Comment)
	}
	return buf.String()
}

// DumpSegment prints a segment file's header and keyword table to stdout
// without attaching to it. Unlike Attach it reads a point-in-time copy of
// the file, so it works on segments whose peers are long gone.
func DumpSegment(path string) {
	mem, err := os.ReadFile(path)
	if err != nil {
		fmt.Println(err)
		return
	}
	if len(mem) < headerSize {
		fmt.Printf("path:%s size:%d too small for a segment header\n", path, len(mem))
		return
	}
	// Realign the copy so the header overlay is safe regardless of how
	// ReadFile placed the bytes.
	words := make([]uint64, (len(mem)+7)/8)
	aligned := unsafe.Slice((*byte)(unsafe.Pointer(&words[0])), len(mem))
	copy(aligned, mem)

	hdr := headerAt(aligned)
	fmt.Printf("path:%s size:%d magic:0x%08x version:%d\n", path, len(mem), hdr.magic, hdr.version)
	if err := hdr.validate(); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("shape: %d keywords, %d x %s\n", hdr.keywordCount, hdr.elementCount, DataType(hdr.dataType))
	fmt.Printf("created:%s accessed:%s request:%v ready:%v\n",
		hdr.created().Format(time.RFC3339Nano), hdr.accessed().Format(time.RFC3339Nano),
		hdr.requestSet(), hdr.readySet())
	if stored, ok := hdr.storedSize(); !ok || stored != uint64(len(mem)) {
		fmt.Printf("layout wants %d bytes, file holds %d\n", stored, len(mem))
		return
	}
	for i, rec := range keywordRecords(aligned, int(hdr.keywordCount)) {
		kw := rec.decode()
		fmt.Printf("keyword %d: %s %s %s %q\n", i, kw.Name, kw.Kind, kw.ValueString(), kw.Comment)
	}
}
