package metaextract

import hjson "github.com/hjson/hjson-go/v4"

// DefaultHjsonDecoder decodes HJSON payloads with the ecosystem's hjson-go
// library, the concrete implementation behind the HjsonDecoder seam.
type DefaultHjsonDecoder struct{}

// Decode implements HjsonDecoder.
func (DefaultHjsonDecoder) Decode(payload []byte) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := hjson.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}
