package storage

// StoreOptions holds per-object metadata applied on Store
type StoreOptions struct {
	Public             bool
	CacheControl       string
	ContentDisposition string
}

// StoreOption configures a single Store call
type StoreOption func(*StoreOptions)

// Public makes the object world readable
func Public() StoreOption {
	return func(o *StoreOptions) { o.Public = true }
}

// CacheControl sets the Cache-Control header served with the object
func CacheControl(value string) StoreOption {
	return func(o *StoreOptions) { o.CacheControl = value }
}

// ContentDisposition sets the Content-Disposition header served with the object
func ContentDisposition(value string) StoreOption {
	return func(o *StoreOptions) { o.ContentDisposition = value }
}

func applyOptions(opts []StoreOption) StoreOptions {
	var o StoreOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
