// Declarative serialization format configuration compiled into lookup tables.
/*
A format is declared once -- its identifier, the content types it answers to, and
the functions that decode and encode it -- and Compile turns the full declaration
set into an immutable Registry the rest of the module consults on every exchange.

Specific objectives

1. Clients can send arbitrary object serializations and request back whichever
encoding type they are most comfortable with.

2. Service developers do not have to explicitly add support for encoding types to
a given service or handler. Support for a format should be able to be added once
to a shared library and gotten for free by an entire ecosystem.

3. Configuration mistakes surface when the Registry is built, never while a
request is in flight. Two formats claiming the same content type literal, or a
requested format with no declaration, fail Compile outright.

4. Developers can easily extend their services to support a new content type by
declaring their own Spec.
*/
package formats
