package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/viant/afs"
	"go.trai.ch/sift/internal/core/ports"
)

const (
	ServiceNodeID  graft.ID = "adapter.fs.service"
	ReaderNodeID   graft.ID = "adapter.fs.reader"
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	HasherNodeID   graft.ID = "adapter.fs.hasher"
	WalkerNodeID   graft.ID = "adapter.fs.walker"
	WriterNodeID   graft.ID = "adapter.fs.writer"
)

func init() {
	// afs service shared by reader, resolver and writer
	graft.Register(graft.Node[afs.Service]{
		ID:        ServiceNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (afs.Service, error) {
			return afs.New(), nil
		},
	})

	graft.Register(graft.Node[ports.FileReader]{
		ID:        ReaderNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ServiceNodeID},
		Run: func(ctx context.Context) (ports.FileReader, error) {
			service, err := graft.Dep[afs.Service](ctx)
			if err != nil {
				return nil, err
			}
			return NewReader(service), nil
		},
	})

	graft.Register(graft.Node[ports.ModuleResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ServiceNodeID},
		Run: func(ctx context.Context) (ports.ModuleResolver, error) {
			service, err := graft.Dep[afs.Service](ctx)
			if err != nil {
				return nil, err
			}
			return NewResolver(service), nil
		},
	})

	graft.Register(graft.Node[*Writer]{
		ID:        WriterNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{ServiceNodeID},
		Run: func(ctx context.Context) (*Writer, error) {
			service, err := graft.Dep[afs.Service](ctx)
			if err != nil {
				return nil, err
			}
			return NewWriter(service), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})

	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})
}
