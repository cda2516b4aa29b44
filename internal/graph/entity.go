package graph

import (
	"regexp"
	"strings"

	"github.com/mnemon/mnemon/internal/store"
	"github.com/mnemon/mnemon/pkg/models"
)

const (
	maxEntityLinks      = 5
	maxTotalEntityEdges = 50

	// MaxEntities caps one insight's entity set; excess is dropped in
	// insertion order.
	MaxEntities = 50
)

// entityPatterns pull named things out of prose: CamelCase identifiers,
// short ALL-CAPS tokens, file-ish paths, URLs, @mentions, and Chinese
// book-title marks.
var entityPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b([A-Z][a-z]+(?:[A-Z][a-z]+)+)\b`),
	regexp.MustCompile(`\b([A-Z]{2,6})\b`),
	regexp.MustCompile(`(?:^|[\s"'(])([.\w/-]+\.\w{1,10})(?:[\s"'),.]|$)`),
	regexp.MustCompile(`https?://[^\s"'<>)]+`),
	regexp.MustCompile(`@([a-zA-Z_]\w+)`),
	regexp.MustCompile(`《([^《》]+)》`),
}

var wordSplitRe = regexp.MustCompile(`[a-zA-Z0-9]+`)

// techNames is a case-sensitive dictionary of technology and product
// names worth treating as entities even when no pattern fires.
const techNames = `
Go Rust Python Java Kotlin Swift Ruby Elixir Zig Lua Dart Scala Perl
Haskell OCaml Julia Clojure JavaScript TypeScript React Vue Angular
Svelte Next Nuxt Node Deno Bun Vite Webpack SQLite PostgreSQL Postgres
MySQL Redis MongoDB DynamoDB Cassandra Qdrant Milvus Chroma Pinecone
Neo4j Weaviate Elasticsearch Docker Kubernetes Terraform Ansible Nginx
Caddy Kafka RabbitMQ AWS GCP Azure Vercel Netlify Cloudflare Supabase
Firebase Ollama OpenAI Claude Anthropic PyTorch TensorFlow LangChain
LlamaIndex FAISS Hugging Git GitHub GitLab Cobra FastAPI Flask Django
Rails Spring Express Gin Echo Fiber Pytest Jest Vitest gRPC GraphQL
WebSocket OAuth JWT YAML TOML Protobuf MAGMA MCP RLM
Linux Ubuntu Debian Alpine Fedora CentOS NixOS FreeBSD Android macOS
Chrome Firefox Safari Chromium Electron Tauri Flutter SwiftUI Grafana
Prometheus Loki Jaeger OpenTelemetry Sentry Datadog Splunk Kibana
Logstash Istio Envoy Consul Vault Nomad Helm ArgoCD Podman Vagrant
Pulumi Jenkins CircleCI Buildkite Bazel Gradle Maven CMake npm pnpm
Yarn Tokio Axum Serde Cargo Actix WebAssembly Phoenix Erlang Ecto NATS
ZeroMQ MQTT Pulsar Celery Flink Spark Hadoop Airflow Dagster Snowflake
Databricks BigQuery Redshift Trino Lambda EC2 S3 Heroku DigitalOcean
CUDA ONNX Keras JAX Llama Mistral Gemini NumPy SciPy Jupyter Tailwind
Bootstrap ESLint Prettier Babel esbuild Astro Remix MariaDB CockroachDB
ClickHouse DuckDB RocksDB Memcached etcd ZooKeeper MinIO InfluxDB
TimescaleDB Couchbase jQuery Redux NestJS pgvector OpenSearch
`

// acronymStopwordList rejects ALL-CAPS English words the pattern above
// would otherwise treat as entities.
const acronymStopwordList = `
IN ON AT TO BY OR AN IF IS IT OF AS DO NO SO UP WE HE MY BE
GO THE AND FOR ARE BUT NOT YOU ALL CAN HER WAS ONE OUR OUT HAS HAD HOW
MAN NEW NOW OLD SEE WAY MAY SAY SHE TWO USE BOY DID GET HIM HIS LET PUT
TOP TOO ANY
`

var (
	techDictionary   = make(map[string]struct{})
	acronymStopwords = make(map[string]struct{})
)

func init() {
	for _, name := range strings.Fields(techNames) {
		techDictionary[name] = struct{}{}
	}
	for _, word := range strings.Fields(acronymStopwordList) {
		acronymStopwords[word] = struct{}{}
	}
}

// ExtractEntities pulls entities from text, pattern hits first and then
// dictionary words, deduplicated case-preserving in discovery order.
func ExtractEntities(text string) []string {
	seen := make(map[string]struct{})
	entities := []string{}
	add := func(entity string) {
		if entity == "" || len(entities) >= MaxEntities {
			return
		}
		if _, ok := seen[entity]; ok {
			return
		}
		if _, ok := acronymStopwords[entity]; ok {
			return
		}
		seen[entity] = struct{}{}
		entities = append(entities, entity)
	}

	for _, pat := range entityPatterns {
		for _, m := range pat.FindAllStringSubmatch(text, -1) {
			add(m[len(m)-1])
		}
	}
	for _, word := range wordSplitRe.FindAllString(text, -1) {
		if _, ok := techDictionary[word]; ok {
			add(word)
		}
	}
	return entities
}

// MergeEntities combines caller-provided entities with extracted ones,
// provided first, deduplicated exact-case, truncated to MaxEntities.
func MergeEntities(provided, extracted []string) []string {
	seen := make(map[string]struct{})
	merged := []string{}
	for _, list := range [][]string{provided, extracted} {
		for _, e := range list {
			if e == "" || len(merged) >= MaxEntities {
				continue
			}
			if _, ok := seen[e]; ok {
				continue
			}
			seen[e] = struct{}{}
			merged = append(merged, e)
		}
	}
	return merged
}

// EntityEdges links the insight bidirectionally to up to 5 peers per
// shared entity, flat weight 1.0, at most 50 edge rows per insert.
func EntityEdges(s *store.Store, in *models.Insight) (int, error) {
	if len(in.Entities) == 0 {
		return 0, nil
	}
	now := models.Now()
	count := 0
	for _, entity := range in.Entities {
		if count >= maxTotalEntityEdges {
			break
		}
		peers, err := s.InsightsSharingEntity(entity, in.ID, maxEntityLinks)
		if err != nil {
			return count, err
		}
		for _, peerID := range peers {
			if count >= maxTotalEntityEdges {
				break
			}
			meta := map[string]any{"entity": entity}
			err := s.UpsertEdge(&models.Edge{
				SourceID: in.ID, TargetID: peerID, EdgeType: models.EdgeEntity,
				Weight: 1.0, Metadata: meta, CreatedAt: now,
			})
			if err != nil {
				return count, err
			}
			count++
			if count >= maxTotalEntityEdges {
				break
			}
			err = s.UpsertEdge(&models.Edge{
				SourceID: peerID, TargetID: in.ID, EdgeType: models.EdgeEntity,
				Weight: 1.0, Metadata: meta, CreatedAt: now,
			})
			if err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}
