package index

var (
	bMeta         = []byte("meta")          // slug -> metaBytes
	bIdxPublished = []byte("idx_published") // invTime + 0x00 + slug
	bIdxTag       = []byte("idx_tag")       // tagKey -> sub-bucket of published keys
	bTagName      = []byte("tag_name")      // tagKey -> display name
	bTagSlug      = []byte("tag_slug")      // tagKey -> page slug
	bManifest     = []byte("manifest")      // artifact rel path -> sha256
)
