package bag

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// MetadataFile is the name of the bag description in every bag directory.
const MetadataFile = "metadata.yaml"

// Highest metadata.yaml version this package reads.
const maxVersion = 9

const (
	StorageSQLite3  = "sqlite3"
	CompressionZstd = "zstd"
)

// CompressionMode says what a compressed bag compresses.
type CompressionMode string

const (
	CompressNone    CompressionMode = ""
	CompressFile    CompressionMode = "FILE"
	CompressMessage CompressionMode = "MESSAGE"
)

type nanoseconds struct {
	Nanoseconds int64 `yaml:"nanoseconds"`
}

type nanosecondsSinceEpoch struct {
	NanosecondsSinceEpoch int64 `yaml:"nanoseconds_since_epoch"`
}

type topicMetadata struct {
	Name                string `yaml:"name"`
	Type                string `yaml:"type"`
	SerializationFormat string `yaml:"serialization_format"`
	OfferedQoSProfiles  qosProfiles `yaml:"offered_qos_profiles"`
	TypeDescriptionHash string `yaml:"type_description_hash,omitempty"`
}

// qosProfiles is offered_qos_profiles as written by the recorder: a YAML
// string up to version 8, a list of profiles from version 9 on. Lists are
// kept as their YAML text.
type qosProfiles string

func (q *qosProfiles) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var s string
		if err := n.Decode(&s); err != nil {
			return err
		}
		*q = qosProfiles(s)
		return nil
	}
	raw, err := yaml.Marshal(n)
	if err != nil {
		return err
	}
	*q = qosProfiles(raw)
	return nil
}

type topicWithCount struct {
	TopicMetadata topicMetadata `yaml:"topic_metadata"`
	MessageCount  int64         `yaml:"message_count"`
}

type fileInformation struct {
	Path         string                `yaml:"path"`
	StartingTime nanosecondsSinceEpoch `yaml:"starting_time"`
	Duration     nanoseconds           `yaml:"duration"`
	MessageCount int64                 `yaml:"message_count"`
}

// bagInformation mirrors rosbag2_bagfile_information.
type bagInformation struct {
	Version                int                   `yaml:"version"`
	StorageIdentifier      string                `yaml:"storage_identifier"`
	Duration               nanoseconds           `yaml:"duration"`
	StartingTime           nanosecondsSinceEpoch `yaml:"starting_time"`
	MessageCount           int64                 `yaml:"message_count"`
	TopicsWithMessageCount []topicWithCount      `yaml:"topics_with_message_count"`
	CompressionFormat      string                `yaml:"compression_format"`
	CompressionMode        CompressionMode       `yaml:"compression_mode"`
	RelativeFilePaths      []string              `yaml:"relative_file_paths"`
	Files                  []fileInformation     `yaml:"files,omitempty"`
}

type metadataDocument struct {
	Info *bagInformation `yaml:"rosbag2_bagfile_information"`
}

func readMetadata(dir string) (*bagInformation, error) {
	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	var doc metadataDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", MetadataFile, err)
	}
	info := doc.Info
	if info == nil {
		return nil, fmt.Errorf("%s has no rosbag2_bagfile_information", MetadataFile)
	}
	if info.Version > maxVersion {
		return nil, fmt.Errorf("metadata version %d is newer than %d", info.Version, maxVersion)
	}
	if info.StorageIdentifier != StorageSQLite3 {
		return nil, fmt.Errorf("storage %q is not supported, want %s", info.StorageIdentifier, StorageSQLite3)
	}
	if info.CompressionFormat != "" || info.CompressionMode != CompressNone {
		if info.CompressionFormat != CompressionZstd {
			return nil, fmt.Errorf("compression format %q is not supported", info.CompressionFormat)
		}
		if info.CompressionMode != CompressFile && info.CompressionMode != CompressMessage {
			return nil, fmt.Errorf("compression mode %q is not supported", info.CompressionMode)
		}
	}
	for _, t := range info.TopicsWithMessageCount {
		if f := t.TopicMetadata.SerializationFormat; f != "" && f != "cdr" {
			return nil, fmt.Errorf("topic %s: serialization %q is not supported", t.TopicMetadata.Name, f)
		}
	}
	return info, nil
}

func writeMetadata(dir string, info *bagInformation) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(metadataDocument{Info: info}); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, MetadataFile), buf.Bytes(), 0644)
}
