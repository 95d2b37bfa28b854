package domain

import (
	"strings"
	"time"
)

// Item represents one tracked physical/digital asset record, originally a
// row of the Digital Lab tracking sheet. Field values are stored almost
// entirely as-is: trimmed strings, blank for missing data. The surrogate ID
// is immutable once assigned; RowIndex preserves the original sheet order
// assigned at ingestion.
type Item struct {
	ID       int64 `json:"id"`
	RowIndex int64 `json:"row_index"`

	HardDriveName     string `json:"hard_drive_name"`
	CarrierA          string `json:"carrier_a"`
	CarrierALocation  string `json:"carrier_a_location"`
	CarrierB          string `json:"carrier_b"`
	CarrierBLocation  string `json:"carrier_b_location"`
	HardDriveBarcode  string `json:"hard_drive_barcode_id"`
	FileFolderName    string `json:"file_folder_name"`
	SubFolderName     string `json:"sub_folder_name"`
	FileName          string `json:"file_name"`
	InventoryNumber   string `json:"inventory_number"`
	SourceInventoryNo string `json:"source_inventory_number"`
	SourceBarcode     string `json:"source_barcode"`
	Title             string `json:"title"`
	JobNumber         string `json:"job_number"`
	SourceType        string `json:"source_type"`
	Resolution        string `json:"resolution"`
	Compression       string `json:"compression"`
	FileFormat        string `json:"file_format"`
	FileSize          string `json:"file_size"`
	FrameRate         string `json:"frame_rate"`
	TotalRunningTime  string `json:"total_running_time"`
	SourceFrameRate   string `json:"source_frame_rate"`
	AspectRatio       string `json:"aspect_ratio"`
	ColorBitDepth     string `json:"color_bit_depth"`
	ColorType         string `json:"color_type"`
	FrameLayout       string `json:"frame_layout"`
	SampleStructure   string `json:"sample_structure"`
	SampleRate        string `json:"sample_rate"`
	CaptureDevice     string `json:"capture_device_make_and_model"`
	CaptureSettings   string `json:"capture_device_settings"`
	DateCaptureDone   string `json:"date_capture_completed"`
	VideoEditSoftware string `json:"video_edit_software_and_settings"`
	DateEditDone      string `json:"date_edit_completed"`
	GradingSoftware   string `json:"color_grading_software"`
	GradingSettings   string `json:"color_grading_settings"`
	AudioFileFormat   string `json:"audio_file_format"`
	DateAudioEditDone string `json:"date_audio_edit_completed"`
	RemasterPlatform  string `json:"remaster_platform"`
	RemasterSoftware  string `json:"remaster_software"`
	RemasterSettings  string `json:"remaster_settings"`
	DateRemasterDone  string `json:"date_remaster_completed"`
	Subtitles         string `json:"subtitles"`
	WatermarkType     string `json:"watermark_type"`
	SecurityEncrypted string `json:"security_data_encrypted"`
	MigrationRecord   string `json:"migration_or_preservation_record"`
	HardDriveLocation string `json:"hard_drive_location"`
	DateJobStarted    string `json:"date_job_started"`
	DateJobCompleted  string `json:"date_job_completed"`
	CatalogedBy       string `json:"general_entry_cataloged_by"`
	Notes             string `json:"notes"`

	AssignedUserID *int64    `json:"assigned_user_id,omitempty"`
	StatusIDs      []int64   `json:"status_ids,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ItemField describes one string column of the items table: its database
// column name, the label used in sheet headers and table displays, and an
// accessor into Item. The registry below drives scanning, inserts, diffs,
// header checks, and export without naming the ~45 columns in every caller.
type ItemField struct {
	Column string
	Label  string
	Get    func(*Item) string
	Set    func(*Item, string)
	Ptr    func(*Item) *string
}

// ItemFields lists every string column of Item in original sheet order.
var ItemFields = []ItemField{
	field("hard_drive_name", "Hard drive name", func(i *Item) *string { return &i.HardDriveName }),
	field("carrier_a", "Carrier A", func(i *Item) *string { return &i.CarrierA }),
	field("carrier_a_location", "Carrier A location", func(i *Item) *string { return &i.CarrierALocation }),
	field("carrier_b", "Carrier B", func(i *Item) *string { return &i.CarrierB }),
	field("carrier_b_location", "Carrier B location", func(i *Item) *string { return &i.CarrierBLocation }),
	field("hard_drive_barcode_id", "Hard drive barcode ID", func(i *Item) *string { return &i.HardDriveBarcode }),
	field("file_folder_name", "File folder name", func(i *Item) *string { return &i.FileFolderName }),
	field("sub_folder_name", "Sub-folder name", func(i *Item) *string { return &i.SubFolderName }),
	field("file_name", "File name", func(i *Item) *string { return &i.FileName }),
	field("inventory_number", "Inventory number", func(i *Item) *string { return &i.InventoryNumber }),
	field("source_inventory_number", "Source inventory number", func(i *Item) *string { return &i.SourceInventoryNo }),
	field("source_barcode", "Source barcode", func(i *Item) *string { return &i.SourceBarcode }),
	field("title", "Title", func(i *Item) *string { return &i.Title }),
	field("job_number", "Job number", func(i *Item) *string { return &i.JobNumber }),
	field("source_type", "Source type", func(i *Item) *string { return &i.SourceType }),
	field("resolution", "Resolution", func(i *Item) *string { return &i.Resolution }),
	field("compression", "Compression", func(i *Item) *string { return &i.Compression }),
	field("file_format", "File format", func(i *Item) *string { return &i.FileFormat }),
	field("file_size", "File size", func(i *Item) *string { return &i.FileSize }),
	field("frame_rate", "Frame rate", func(i *Item) *string { return &i.FrameRate }),
	field("total_running_time", "Total running time", func(i *Item) *string { return &i.TotalRunningTime }),
	field("source_frame_rate", "Source frame rate", func(i *Item) *string { return &i.SourceFrameRate }),
	field("aspect_ratio", "Aspect ratio", func(i *Item) *string { return &i.AspectRatio }),
	field("color_bit_depth", "Color bit depth", func(i *Item) *string { return &i.ColorBitDepth }),
	field("color_type", "Color type", func(i *Item) *string { return &i.ColorType }),
	field("frame_layout", "Frame layout", func(i *Item) *string { return &i.FrameLayout }),
	field("sample_structure", "Sample structure", func(i *Item) *string { return &i.SampleStructure }),
	field("sample_rate", "Sample rate", func(i *Item) *string { return &i.SampleRate }),
	field("capture_device_make_and_model", "Capture device make and model", func(i *Item) *string { return &i.CaptureDevice }),
	field("capture_device_settings", "Capture device settings", func(i *Item) *string { return &i.CaptureSettings }),
	field("date_capture_completed", "Date capture completed", func(i *Item) *string { return &i.DateCaptureDone }),
	field("video_edit_software_and_settings", "Video edit software and settings", func(i *Item) *string { return &i.VideoEditSoftware }),
	field("date_edit_completed", "Date edit completed", func(i *Item) *string { return &i.DateEditDone }),
	field("color_grading_software", "Color grading software", func(i *Item) *string { return &i.GradingSoftware }),
	field("color_grading_settings", "Color grading settings", func(i *Item) *string { return &i.GradingSettings }),
	field("audio_file_format", "Audio file format", func(i *Item) *string { return &i.AudioFileFormat }),
	field("date_audio_edit_completed", "Date audio edit completed", func(i *Item) *string { return &i.DateAudioEditDone }),
	field("remaster_platform", "Remaster platform", func(i *Item) *string { return &i.RemasterPlatform }),
	field("remaster_software", "Remaster software", func(i *Item) *string { return &i.RemasterSoftware }),
	field("remaster_settings", "Remaster settings", func(i *Item) *string { return &i.RemasterSettings }),
	field("date_remaster_completed", "Date remaster completed", func(i *Item) *string { return &i.DateRemasterDone }),
	field("subtitles", "Subtitles", func(i *Item) *string { return &i.Subtitles }),
	field("watermark_type", "Watermark type", func(i *Item) *string { return &i.WatermarkType }),
	field("security_data_encrypted", "Security data encrypted", func(i *Item) *string { return &i.SecurityEncrypted }),
	field("migration_or_preservation_record", "Migration or preservation record", func(i *Item) *string { return &i.MigrationRecord }),
	field("hard_drive_location", "Hard drive location", func(i *Item) *string { return &i.HardDriveLocation }),
	field("date_job_started", "Date job started", func(i *Item) *string { return &i.DateJobStarted }),
	field("date_job_completed", "Date job completed", func(i *Item) *string { return &i.DateJobCompleted }),
	field("general_entry_cataloged_by", "General entry cataloged by", func(i *Item) *string { return &i.CatalogedBy }),
	field("notes", "Notes", func(i *Item) *string { return &i.Notes }),
}

func field(column, label string, ptr func(*Item) *string) ItemField {
	return ItemField{
		Column: column,
		Label:  label,
		Get:    func(i *Item) string { return *ptr(i) },
		Set:    func(i *Item, v string) { *ptr(i) = v },
		Ptr:    ptr,
	}
}

var itemFieldsByColumn = func() map[string]ItemField {
	m := make(map[string]ItemField, len(ItemFields))
	for _, f := range ItemFields {
		m[f.Column] = f
	}
	return m
}()

// FieldByColumn looks up a field descriptor by its column name.
func FieldByColumn(column string) (ItemField, bool) {
	f, ok := itemFieldsByColumn[column]
	return f, ok
}

// ItemColumns returns the column names of all string fields in sheet order.
func ItemColumns() []string {
	columns := make([]string, len(ItemFields))
	for i, f := range ItemFields {
		columns[i] = f.Column
	}
	return columns
}

// FieldValue returns the value of the named column, or "" for unknown names.
func (i *Item) FieldValue(column string) string {
	f, ok := itemFieldsByColumn[column]
	if !ok {
		return ""
	}
	return f.Get(i)
}

// SetFieldValue sets the named column and reports whether the column exists.
func (i *Item) SetFieldValue(column, value string) bool {
	f, ok := itemFieldsByColumn[column]
	if !ok {
		return false
	}
	f.Set(i, value)
	return true
}

// IsEmpty reports whether every string field trims to blank. Rows like this
// are artifacts of the original sheet import and carry no data beyond the
// system-assigned ID.
func (i *Item) IsEmpty() bool {
	for _, f := range ItemFields {
		if strings.TrimSpace(f.Get(i)) != "" {
			return false
		}
	}
	return true
}

// Changes diffs two versions of the same item field by field, producing
// audit entries for the item history trail.
func (i *Item) Changes(updated *Item) []ChangeEntry {
	var entries []ChangeEntry
	for _, f := range ItemFields {
		before := f.Get(i)
		after := f.Get(updated)
		if before != after {
			entries = append(entries, ChangeEntry{
				ItemID:   i.ID,
				Field:    f.Column,
				OldValue: before,
				NewValue: after,
			})
		}
	}
	return entries
}
