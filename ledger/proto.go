package ledger

import (
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/blobcontainer/codec"
)

// ProtoCodec stores records as a google.protobuf.Struct, readable by any
// protobuf runtime without a generated schema.
func ProtoCodec() codec.Codec[Record] {
	return protoCodec{pb: codec.NewProtobuf(func() *structpb.Struct { return &structpb.Struct{} })}
}

type protoCodec struct {
	pb codec.Protobuf[*structpb.Struct]
}

func (c protoCodec) Encode(r Record) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]any{
		"name":        r.Name,
		"access":      r.Access,
		"verified_at": r.VerifiedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, err
	}
	return c.pb.Encode(s)
}

func (c protoCodec) Decode(b []byte) (Record, error) {
	s, err := c.pb.Decode(b)
	if err != nil {
		return Record{}, err
	}
	f := s.GetFields()
	name := f["name"].GetStringValue()
	if name == "" {
		return Record{}, fmt.Errorf("ledger: proto record without name")
	}
	r := Record{Name: name, Access: f["access"].GetStringValue()}
	if ts := f["verified_at"].GetStringValue(); ts != "" {
		if r.VerifiedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return Record{}, err
		}
	}
	return r, nil
}
