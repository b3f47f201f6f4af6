package assets

// AssetResolver tries a custom directory before the embedded assets. Only
// a missing asset falls through; invalid names, unreadable files and
// incomplete starters stop the lookup.
type AssetResolver struct {
	chain []AssetLoader
}

// NewAssetResolver layers basePath over the embedded assets. An empty
// basePath resolves from the embedded assets alone.
func NewAssetResolver(basePath string) (*AssetResolver, error) {
	r := &AssetResolver{}
	if basePath != "" {
		custom, err := NewFilesystemLoader(basePath)
		if err != nil {
			return nil, err
		}
		r.chain = append(r.chain, custom)
	}
	r.chain = append(r.chain, NewEmbeddedLoader())
	return r, nil
}

// LoadTemplate returns the first template named name along the chain.
func (r *AssetResolver) LoadTemplate(name string) (string, error) {
	return resolve(r.chain, func(l AssetLoader) (string, error) { return l.LoadTemplate(name) })
}

// LoadStarter returns the first starter named name along the chain.
func (r *AssetResolver) LoadStarter(name string) (*Starter, error) {
	return resolve(r.chain, func(l AssetLoader) (*Starter, error) { return l.LoadStarter(name) })
}

func resolve[T any](chain []AssetLoader, load func(AssetLoader) (T, error)) (T, error) {
	var (
		v   T
		err error
	)
	for _, l := range chain {
		if v, err = load(l); err == nil || !notFound(err) {
			return v, err
		}
	}
	return v, err
}

var _ AssetLoader = (*AssetResolver)(nil)
