package core

import (
	"time"

	"github.com/mus-format/mus-go"
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// Field serializers. Embeddings end up as a length-prefixed float32 array,
// timestamps as varint-encoded UnixMicro values.
var (
	authorsMUS = ord.NewSliceSer[string](ord.String)
	vectorMUS  = ord.NewSliceSer[float32](raw.Float32)
	biasMUS    = ord.NewPtrSer[float64](raw.Float64)
)

// DocumentMUS serializes Document values in MUS format for storage.
var DocumentMUS = documentMUS{}

type documentMUS struct{}

var _ mus.Serializer[Document] = documentMUS{}

func (documentMUS) Marshal(v Document, bs []byte) (n int) {
	n = ord.String.Marshal(v.URL, bs)
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.Source, bs[n:])
	n += authorsMUS.Marshal(v.Authors, bs[n:])
	n += ord.String.Marshal(v.Title, bs[n:])
	n += varint.Int64.Marshal(v.PublishedAt.UnixMicro(), bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += biasMUS.Marshal(v.BiasScore, bs[n:])
	n += varint.Uint64.Marshal(uint64(v.Fingerprint), bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	n += varint.Int64.Marshal(v.UpdatedAt.UnixMicro(), bs[n:])
	return n
}

func (documentMUS) Unmarshal(bs []byte) (v Document, n int, err error) {
	var n1 int
	v.URL, n, err = ord.String.Unmarshal(bs)
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Source, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Authors, n1, err = authorsMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Title, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var published int64
	published, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.PublishedAt = time.UnixMicro(published).UTC()
	v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.BiasScore, n1, err = biasMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var fp uint64
	fp, n1, err = varint.Uint64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Fingerprint = Fingerprint(fp)
	var inserted, updated int64
	inserted, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.InsertedAt = time.UnixMicro(inserted).UTC()
	updated, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.UpdatedAt = time.UnixMicro(updated).UTC()
	return
}

func (documentMUS) Size(v Document) (size int) {
	size = ord.String.Size(v.URL)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.Source)
	size += authorsMUS.Size(v.Authors)
	size += ord.String.Size(v.Title)
	size += varint.Int64.Size(v.PublishedAt.UnixMicro())
	size += vectorMUS.Size(v.Vector)
	size += biasMUS.Size(v.BiasScore)
	size += varint.Uint64.Size(uint64(v.Fingerprint))
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	size += varint.Int64.Size(v.UpdatedAt.UnixMicro())
	return
}

func (documentMUS) Skip(bs []byte) (n int, err error) {
	var n1 int
	n, err = ord.String.Skip(bs) // URL
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:]) // Text
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:]) // Source
	n += n1
	if err != nil {
		return
	}
	n1, err = authorsMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:]) // Title
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = vectorMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = biasMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Uint64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
