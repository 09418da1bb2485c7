// Licensed to the Apache Software Foundation (ASF) under one or more
// contributor license agreements.  See the NOTICE file distributed with
// this work for additional information regarding copyright ownership.
// The ASF licenses this file to You under the Apache License, Version 2.0
// (the "License"); you may not use this file except in compliance with
// the License.  You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shuffle

import (
	"bytes"
	"encoding/gob"

	shuffleerrors "github.com/flowshuffle/rangepartition/pkg/shuffle/internal/errors"
	"github.com/flowshuffle/rangepartition/pkg/shuffle/order"
)

// wireFormat is the serializable state of a RangePartitioner: the
// direction flag, the ordering descriptor (spec §9's transferable
// comparator), the boundary array itself, and the declared partition
// count (kept explicit so the requested-0-vs-1 distinction round-trips
// even though both cases have an empty boundary array). Grounded on the
// teacher's own MarshalBinary/UnmarshalBinary pair for its accumulator
// and weighted-element wire formats (transforms/stats/quantiles.go),
// which wrap a gob.Encoder/gob.Decoder the same way.
type wireFormat[K any] struct {
	Ascending  bool
	Desc       order.Descriptor
	Boundaries []K
	NumParts   int
}

// MarshalBinary serializes p so it can be shipped to a worker and
// reconstructed with UnmarshalBinary without recomputing the boundary
// array. The comparator itself is not serialized; only the descriptor
// that can rebuild it is, per spec §9.
func (p *RangePartitioner[K]) MarshalBinary() ([]byte, error) {
	var buf bytes.Buffer
	w := wireFormat[K]{
		Ascending:  p.ascending,
		Desc:       p.desc,
		Boundaries: p.boundaries,
		NumParts:   p.numParts,
	}
	if err := gob.NewEncoder(&buf).Encode(w); err != nil {
		return nil, shuffleerrors.Wrap(shuffleerrors.SerializationFailure, err, "shuffle: encoding range partitioner")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary reconstructs p from data previously produced by
// MarshalBinary, including re-resolving the comparator from the encoded
// ordering descriptor (spec §9: the comparator itself is never assumed
// transferable, only the descriptor that rebuilds it).
func (p *RangePartitioner[K]) UnmarshalBinary(data []byte) error {
	var w wireFormat[K]
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return shuffleerrors.Wrap(shuffleerrors.SerializationFailure, err, "shuffle: decoding range partitioner")
	}
	cmp, err := order.Resolve[K](w.Desc)
	if err != nil {
		return shuffleerrors.Wrap(shuffleerrors.SerializationFailure, err, "shuffle: resolving ordering descriptor after decode")
	}
	p.ascending = w.Ascending
	p.desc = w.Desc
	p.boundaries = w.Boundaries
	p.numParts = w.NumParts
	p.cmp = cmp
	return nil
}
