package distributed

import (
	"bytes"
	"encoding/binary"

	"github.com/clusterforge/kmedoids/pkg/kmedoids"
)

// encodeMatrix serializes a Matrix's shape and row-major data as the
// wire payload for a Transport message, following the teacher's
// binary.Write/LittleEndian convention for fixed-size on-disk records.
func encodeMatrix[T kmedoids.Float](m *kmedoids.Matrix[T]) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, int64(m.Rows())); err != nil {
		return nil, kmedoids.NewTransportFailure("encode matrix rows: %s", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, int64(m.Cols())); err != nil {
		return nil, kmedoids.NewTransportFailure("encode matrix cols: %s", err)
	}
	if err := binary.Write(buf, binary.LittleEndian, m.Data()); err != nil {
		return nil, kmedoids.NewTransportFailure("encode matrix data: %s", err)
	}
	return buf.Bytes(), nil
}

// decodeMatrix reverses encodeMatrix.
func decodeMatrix[T kmedoids.Float](payload []byte) (*kmedoids.Matrix[T], error) {
	buf := bytes.NewReader(payload)
	var rows, cols int64
	if err := binary.Read(buf, binary.LittleEndian, &rows); err != nil {
		return nil, kmedoids.NewTransportFailure("decode matrix rows: %s", err)
	}
	if err := binary.Read(buf, binary.LittleEndian, &cols); err != nil {
		return nil, kmedoids.NewTransportFailure("decode matrix cols: %s", err)
	}
	m := kmedoids.NewMatrix[T](int(rows), int(cols))
	if err := binary.Read(buf, binary.LittleEndian, m.Data()); err != nil {
		return nil, kmedoids.NewTransportFailure("decode matrix data: %s", err)
	}
	return m, nil
}
