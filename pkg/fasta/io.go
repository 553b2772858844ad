package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

var (
	errBadlyFormedFasta = errors.New("badly formed fasta file")
	errEmptyFasta       = errors.New("empty fasta file")
)

type Reader struct {
	*bufio.Reader
}

func NewReader(f io.Reader) *Reader {
	return &Reader{bufio.NewReader(f)}
}

// trimNewline strips a unix or dos line ending
func trimNewline(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
	}
	return line
}

// Read reads one fasta record from the underlying reader. The final record is
// returned with error = nil, and the next call to Read() returns an empty Record
// struct and error = io.EOF.
func (r *Reader) Read() (Record, error) {

	var (
		buffer, line, peek []byte
		fields             [][]byte
		err                error
		FR                 Record
	)

	// skip blank lines before the header
	for {
		peek, err = r.Peek(1)
		if err != nil {
			return Record{}, err
		}
		if peek[0] != '\n' && peek[0] != '\r' {
			break
		}
		if _, err = r.ReadBytes('\n'); err != nil {
			return Record{}, err
		}
	}

	// the file should never end on a header line, so io.EOF here is returned as-is
	line, err = r.ReadBytes('\n')
	if err != nil {
		return Record{}, err
	}
	if line[0] != '>' {
		return Record{}, errBadlyFormedFasta
	}
	line = trimNewline(line)

	fields = bytes.Fields(line[1:])
	if len(fields) == 0 {
		return Record{}, errBadlyFormedFasta
	}
	FR.ID = string(fields[0])
	FR.Description = string(line[1:])

	for {
		// peek at the next byte to see if we've reached the end of this record (or the file)
		peek, err = r.Peek(1)
		if err == io.EOF || (err == nil && peek[0] == '>') {
			err = nil
			break
		} else if err != nil {
			return Record{}, err
		}

		// io.EOF without a trailing newline is caught by the next Peek
		line, err = r.ReadBytes('\n')
		if err != nil && err != io.EOF {
			return Record{}, err
		}

		buffer = append(buffer, trimNewline(line)...)
	}
	FR.Seq = buffer

	return FR, err
}
