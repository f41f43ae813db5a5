package mcpserver

// SchemaContract documents the record shapes assistants must produce
// and can expect, exposed as the ansuz://schema resource.
const SchemaContract = `# Ansuz entity schema

All records are flat JSON objects. Ids are server-generated for
records created through the MCP tools. Timestamps are RFC 3339 UTC.

## tasks
id, title, description?, category (business|cert|health|spanish|trading|creative|other),
priority (high|medium|low), status (todo|in-progress|done), dueDate?,
tagIds (string list), createdAt, updatedAt

## notes
id, title, content, category, tagIds, createdAt, updatedAt

## documents
id, title, fileName, fileType, fileSize (bytes), fileUrl, tagIds,
createdAt, updatedAt

## reminders
id, title, description?, dateTime, repeat (none|daily|weekly|monthly),
completed (boolean), tagIds, calendarEventId?, createdAt

## tags
id, name, color (hex string)

tagIds entries reference tags.id. References are weak: a tag may have
been deleted, in which case skip the unresolvable id.
`
