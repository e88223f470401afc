package knxip

import "github.com/p0l0/xknx/internal/knxip/cemi"

// SearchRequest is multicast by clients to discover KNXnet/IP servers.
// Servers reply to DiscoveryEndpoint.
type SearchRequest struct {
	DiscoveryEndpoint HPAI
}

// ServiceType implements Body.
func (*SearchRequest) ServiceType() ServiceType { return ServiceSearchRequest }

// CalculatedLength implements Body.
func (*SearchRequest) CalculatedLength() int { return hpaiLength }

func (r *SearchRequest) decodeKNX(data []byte, _ func(*cemi.UnsupportedError)) (int, error) {
	endpoint, n, err := DecodeHPAI(data)
	if err != nil {
		return 0, err
	}
	r.DiscoveryEndpoint = endpoint
	return n, nil
}

func (r *SearchRequest) appendKNX(dst []byte) ([]byte, error) {
	return r.DiscoveryEndpoint.AppendKNX(dst)
}
