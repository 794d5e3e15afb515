package services

// SetAfterAuthorize installs a hook run by CatalogService.Update between its
// ownership check and the write.
func SetAfterAuthorize(s *CatalogService, f func()) { s.afterAuthorize = f }
