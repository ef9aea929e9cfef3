package smart

import "github.com/pkg/errors"

// ErrNoListingStream reports a data-phase action on a stateful
// transport that never performed the listing phase.
var ErrNoListingStream = errors.New("data phase requested before ref listing")

// Transport binds a subtransport to a single remote and manages the
// lifetime of the streams it hands out.
//
// A stateless subtransport (such as HTTP) opens a fresh stream for
// every action. A stateful one keeps a single connection alive: the
// listing phase opens the stream and the matching data phase keeps
// talking on it.
type Transport struct {
	remote    Remote
	stateless bool
	sub       Subtransport

	current Stream
}

// NewTransport wraps sub for use against remote. stateless controls
// whether data-phase actions reuse the listing-phase stream.
func NewTransport(remote Remote, stateless bool, sub Subtransport) *Transport {
	return &Transport{
		remote:    remote,
		stateless: stateless,
		sub:       sub,
	}
}

// Action opens (or, for stateful data phases, resumes) the stream
// performing svc against the transport's remote.
func (t *Transport) Action(svc Service) (Stream, error) {
	switch svc {
	case UploadPackLs, ReceivePackLs:
		return t.openStream(svc)

	case UploadPack, ReceivePack:
		if t.stateless {
			return t.openStream(svc)
		}
		if t.current == nil {
			return nil, errors.Wrap(ErrNoListingStream, svc.String())
		}
		return t.current, nil

	default:
		return nil, errors.Errorf("unsupported service %d", svc)
	}
}

func (t *Transport) openStream(svc Service) (Stream, error) {
	if t.current != nil {
		_ = t.current.Close()
		t.current = nil
	}

	stream, err := t.sub.Action(t.remote.URL(), svc)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s stream", svc)
	}

	t.current = stream
	return stream, nil
}

// Close closes the live stream, if any, and then the subtransport.
func (t *Transport) Close() error {
	if t.current != nil {
		_ = t.current.Close()
		t.current = nil
	}
	return t.sub.Close()
}
